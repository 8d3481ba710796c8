package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Konsultn-Engineering/queryfn/cache"
	"github.com/Konsultn-Engineering/queryfn/database"
	"github.com/Konsultn-Engineering/queryfn/errs"
	"github.com/Konsultn-Engineering/queryfn/logger"
	"github.com/Konsultn-Engineering/queryfn/utils"
)

// State is a step of one invocation, reported in debug logs.
type State string

const (
	StateIdle       State = "idle"
	StateConnected  State = "connected"
	StateExecuted   State = "executed"
	StateCommitted  State = "committed"
	StateRolledBack State = "rolled_back"
	StateReleased   State = "released"
	StateReturned   State = "returned"
	StateRaised     State = "raised"
)

// Query is a built query function. The descriptor is fixed at build time
// and shared read-only by concurrent invocations.
type Query struct {
	desc      Descriptor
	extract   extractor
	pool      Pool
	templates *cache.TemplateCache
	log       *logger.Logger

	rollbackTimeout time.Duration
}

func (q *Query) Name() string { return q.desc.Name }

func (q *Query) SQL() string { return q.desc.SQL }

func (q *Query) Returning() Returning { return q.desc.Returning }

// Call invokes the query. Positional values are bound in order; a single
// Named value binds :name parameters instead. Mixing the two fails with
// *errs.ArgumentError before a connection is acquired.
func (q *Query) Call(ctx context.Context, args ...any) (any, error) {
	a, err := splitArgs(q.desc.Name, args)
	if err != nil {
		return nil, err
	}
	return q.Invoke(ctx, a)
}

// Invoke runs one acquire, execute, shape, commit/rollback, release cycle.
//
// The connection is released exactly once on every path out of Invoke,
// including cancellation of ctx. Acquisition errors from the pool are
// returned as is; execution, extraction and commit failures are returned as
// *errs.QueryExecutionError.
func (q *Query) Invoke(ctx context.Context, args Args) (any, error) {
	if err := args.validate(q.desc.Name); err != nil {
		return nil, err
	}
	sql, bound, err := q.bind(args)
	if err != nil {
		return nil, err
	}

	log := q.log.With("invocation_id", utils.NewInvocationID())
	start := time.Now()

	res, err := q.run(ctx, sql, bound, log)
	if err != nil {
		log.Debug("invocation failed", "state", StateRaised, "duration", time.Since(start), "error", err)
		return nil, err
	}

	if q.desc.Transform != nil {
		out, terr := q.desc.Transform(res)
		if terr != nil {
			log.Debug("transform failed", "state", StateRaised, "error", terr)
			return nil, &errs.TransformError{Query: q.desc.Name, Err: terr}
		}
		res = out
	}

	log.Debug("invocation done", "state", StateReturned, "duration", time.Since(start))
	return res, nil
}

// bind resolves the argument set into the statement and positional values
// for the pool's dialect. Nothing here touches the pool's connections.
func (q *Query) bind(args Args) (string, []any, error) {
	if !args.keyed() {
		return q.desc.SQL, args.Positional, nil
	}

	tpl, err := q.templates.GetOrCompile(q.desc.SQL, q.pool.Dialect())
	if err != nil {
		return "", nil, &errs.ArgumentError{Query: q.desc.Name, Reason: "statement cannot be bound by name: " + err.Error()}
	}
	if !tpl.HasParams() {
		return tpl.SQL, nil, nil
	}
	vals, err := tpl.Bind(args.Keyed)
	if err != nil {
		return "", nil, &errs.ArgumentError{Query: q.desc.Name, Reason: err.Error()}
	}
	return tpl.SQL, vals, nil
}

func (q *Query) run(ctx context.Context, sql string, args []any, log *logger.Logger) (any, error) {
	log.Debug("acquiring connection", "state", StateIdle)
	conn, err := q.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		q.pool.Release(conn)
		log.Debug("connection released", "state", StateReleased)
	}()
	log.Debug("connection acquired", "state", StateConnected)

	return q.exchange(ctx, conn, sql, args, log)
}

// exchange executes, shapes and settles the transaction on conn.
func (q *Query) exchange(ctx context.Context, conn database.Conn, sql string, args []any, log *logger.Logger) (any, error) {
	cur, err := conn.Execute(ctx, sql, args...)
	if err != nil {
		return nil, q.abort(ctx, conn, errs.PhaseExecute, err, log)
	}

	res, err := q.extract(cur)
	if cerr := cur.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		phase, cause := phaseOf(err)
		return nil, q.abort(ctx, conn, phase, cause, log)
	}
	if log.Enabled(ctx, slog.LevelDebug) {
		log.Debug("statement executed", "state", StateExecuted, "result", describe(res))
	}

	if q.desc.Commit {
		if err := conn.Commit(ctx); err != nil {
			return nil, q.failure(errs.PhaseCommit, err, nil)
		}
		log.Debug("transaction committed", "state", StateCommitted)
	}
	return res, nil
}

// abort rolls back after a failed step. The rollback runs even when ctx is
// already canceled, bounded by rollbackTimeout; its own failure is attached
// to, never substituted for, the original error.
func (q *Query) abort(ctx context.Context, conn database.Conn, phase errs.Phase, cause error, log *logger.Logger) error {
	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.rollbackTimeout)
	defer cancel()
	rbErr := conn.Rollback(rbCtx)
	if rbErr != nil {
		log.WarnWithErr("rollback failed", rbErr, "state", StateRolledBack, "phase", string(phase))
	} else {
		log.Debug("transaction rolled back", "state", StateRolledBack, "phase", string(phase))
	}
	return q.failure(phase, cause, rbErr)
}

func (q *Query) failure(phase errs.Phase, cause, rbErr error) error {
	return &errs.QueryExecutionError{
		Query:       q.desc.Name,
		SQL:         q.desc.SQL,
		Phase:       phase,
		Code:        database.SQLState(cause),
		Err:         cause,
		RollbackErr: rbErr,
	}
}

func describe(res any) string {
	switch v := res.(type) {
	case nil:
		return "nil"
	case []database.Row:
		return utils.Count(len(v), "row")
	case database.Row:
		return utils.Count(1, "row")
	default:
		return fmt.Sprintf("%T", v)
	}
}
