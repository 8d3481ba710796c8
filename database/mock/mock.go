/*
Package mock provides an in-memory connection pool for testing code built on
query functions without a database server.

The pool hands out scripted connections, enforces its size the way a real
pool does (Acquire blocks while every connection is borrowed) and counts
every acquire, release, commit and rollback for assertions.

	p := mock.New(mock.Config{Size: 2})
	p.OnQuery("SELECT max(id) FROM t").ReturnRows([]string{"max"}, []any{int64(42)})
	p.OnQuery("INSERT INTO t(x) VALUES($1)").ReturnError(errors.New("duplicate key"))

	// ... run query functions against p ...

	c := p.Counts()
	// c.Acquires == c.Releases, c.Commits, c.Rollbacks
*/
package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/Konsultn-Engineering/queryfn/connector"
	"github.com/Konsultn-Engineering/queryfn/database"
	"github.com/Konsultn-Engineering/queryfn/dialect"
	"github.com/Konsultn-Engineering/queryfn/errs"
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("mock pool closed")

// Config configures the mock pool.
type Config struct {
	// Size is the number of connections; defaults to 1.
	Size int
	// Dialect defaults to Postgres.
	Dialect dialect.Dialect
}

// Response is the scripted outcome of one statement.
type Response struct {
	Columns     []string
	Rows        [][]any
	ExecErr     error // returned by Execute
	FetchErr    error // returned by the first fetch
	CloseErr    error // returned by Cursor.Close
	CommitErr   error
	RollbackErr error
	// Block, when set, makes Execute wait for a receive (or ctx) before
	// returning, so tests can hold connections open.
	Block <-chan struct{}
	// RollbackBlock makes Rollback wait the same way, for a hung backend.
	RollbackBlock <-chan struct{}
}

// ResponseBuilder configures the response for one SQL text.
type ResponseBuilder struct {
	p   *Pool
	sql string
}

func (b *ResponseBuilder) update(fn func(r *Response)) *ResponseBuilder {
	b.p.mu.Lock()
	defer b.p.mu.Unlock()
	r := b.p.responses[b.sql]
	fn(&r)
	b.p.responses[b.sql] = r
	return b
}

// ReturnRows sets the result columns and appends rows.
func (b *ResponseBuilder) ReturnRows(columns []string, rows ...[]any) *ResponseBuilder {
	return b.update(func(r *Response) {
		r.Columns = columns
		r.Rows = append(r.Rows, rows...)
	})
}

// ReturnError makes Execute fail.
func (b *ResponseBuilder) ReturnError(err error) *ResponseBuilder {
	return b.update(func(r *Response) { r.ExecErr = err })
}

// FailFetch makes the first fetch fail.
func (b *ResponseBuilder) FailFetch(err error) *ResponseBuilder {
	return b.update(func(r *Response) { r.FetchErr = err })
}

// FailClose makes Cursor.Close fail, as drivers do for deferred statement errors.
func (b *ResponseBuilder) FailClose(err error) *ResponseBuilder {
	return b.update(func(r *Response) { r.CloseErr = err })
}

// FailCommit makes Commit fail after this statement.
func (b *ResponseBuilder) FailCommit(err error) *ResponseBuilder {
	return b.update(func(r *Response) { r.CommitErr = err })
}

// FailRollback makes Rollback fail after this statement.
func (b *ResponseBuilder) FailRollback(err error) *ResponseBuilder {
	return b.update(func(r *Response) { r.RollbackErr = err })
}

// BlockOn makes Execute wait on ch.
func (b *ResponseBuilder) BlockOn(ch <-chan struct{}) *ResponseBuilder {
	return b.update(func(r *Response) { r.Block = ch })
}

// BlockRollbackOn makes Rollback wait on ch or until its ctx ends.
func (b *ResponseBuilder) BlockRollbackOn(ch <-chan struct{}) *ResponseBuilder {
	return b.update(func(r *Response) { r.RollbackBlock = ch })
}

// Call records one Execute.
type Call struct {
	SQL  string
	Args []any
}

// Counts is a snapshot of the pool's counters.
type Counts struct {
	Acquires  int
	Releases  int
	Commits   int
	Rollbacks int
	Resets    int // releases that found a transaction still open
	InUse     int
	MaxInUse  int
}

// Pool implements connector.Pool in memory.
type Pool struct {
	id      string
	size    int
	dialect dialect.Dialect
	slots   chan struct{}

	mu         sync.Mutex
	responses  map[string]Response
	calls      []Call
	counts     Counts
	acquireErr error
	closed     bool
}

// New creates a mock pool.
func New(cfg Config) *Pool {
	if cfg.Size <= 0 {
		cfg.Size = 1
	}
	if cfg.Dialect == nil {
		cfg.Dialect = dialect.NewPostgresDialect()
	}
	p := &Pool{
		id:        uuid.NewString(),
		size:      cfg.Size,
		dialect:   cfg.Dialect,
		slots:     make(chan struct{}, cfg.Size),
		responses: make(map[string]Response),
	}
	for i := 0; i < cfg.Size; i++ {
		p.slots <- struct{}{}
	}
	return p
}

// OnQuery configures the response for sql. Unconfigured statements succeed
// with an empty result.
func (p *Pool) OnQuery(sql string) *ResponseBuilder {
	return &ResponseBuilder{p: p, sql: sql}
}

// FailAcquire makes every later Acquire fail with err wrapped in
// *errs.AcquisitionError; nil restores normal behavior.
func (p *Pool) FailAcquire(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.acquireErr = err
}

// Counts returns a snapshot of the counters.
func (p *Pool) Counts() Counts {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts
}

// Calls returns the executed statements in order.
func (p *Pool) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

func (p *Pool) ID() string               { return p.id }
func (p *Pool) Name() string             { return "mock" }
func (p *Pool) Dialect() dialect.Dialect { return p.dialect }
func (p *Pool) Ping(context.Context) error {
	return nil
}

// Acquire borrows a connection, blocking while all are in use.
func (p *Pool) Acquire(ctx context.Context) (database.Conn, error) {
	p.mu.Lock()
	acquireErr, closed := p.acquireErr, p.closed
	p.mu.Unlock()
	if closed {
		return nil, &errs.AcquisitionError{Pool: p.Name(), Err: ErrPoolClosed}
	}
	if acquireErr != nil {
		return nil, &errs.AcquisitionError{Pool: p.Name(), Err: acquireErr}
	}

	select {
	case <-p.slots:
	case <-ctx.Done():
		return nil, &errs.AcquisitionError{Pool: p.Name(), Err: ctx.Err()}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts.Acquires++
	p.counts.InUse++
	if p.counts.InUse > p.counts.MaxInUse {
		p.counts.MaxInUse = p.counts.InUse
	}
	return &Conn{pool: p}, nil
}

// Release returns conn to the pool. Releasing twice is a no-op.
func (p *Pool) Release(conn database.Conn) {
	c, ok := conn.(*Conn)
	if !ok || c.pool != p {
		return
	}

	p.mu.Lock()
	if c.released {
		p.mu.Unlock()
		return
	}
	c.released = true
	if c.inTx {
		p.counts.Resets++
		c.inTx = false
	}
	p.counts.Releases++
	p.counts.InUse--
	p.mu.Unlock()

	p.slots <- struct{}{}
}

func (p *Pool) Stats() connector.PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return connector.PoolStats{
		OpenConnections: p.size,
		InUse:           p.counts.InUse,
		Idle:            p.size - p.counts.InUse,
		MaxOpen:         p.size,
		AcquireCount:    int64(p.counts.Acquires),
	}
}

func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *Pool) response(sql string) Response {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.responses[sql]
}

// Conn is a scripted connection.
type Conn struct {
	pool     *Pool
	last     Response
	inTx     bool
	released bool
}

// Execute records the call and returns the scripted cursor.
func (c *Conn) Execute(ctx context.Context, sql string, args ...any) (database.Cursor, error) {
	c.pool.mu.Lock()
	c.pool.calls = append(c.pool.calls, Call{SQL: sql, Args: append([]any(nil), args...)})
	c.pool.mu.Unlock()

	r := c.pool.response(sql)
	c.last = r
	c.inTx = true

	if r.Block != nil {
		select {
		case <-r.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.ExecErr != nil {
		return nil, r.ExecErr
	}
	return &Cursor{resp: r}, nil
}

func (c *Conn) Commit(context.Context) error {
	c.pool.mu.Lock()
	c.pool.counts.Commits++
	c.pool.mu.Unlock()
	c.inTx = false
	return c.last.CommitErr
}

func (c *Conn) Rollback(ctx context.Context) error {
	c.pool.mu.Lock()
	c.pool.counts.Rollbacks++
	c.pool.mu.Unlock()
	c.inTx = false
	if c.last.RollbackBlock != nil {
		select {
		case <-c.last.RollbackBlock:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return c.last.RollbackErr
}

// Cursor serves scripted rows.
type Cursor struct {
	resp    Response
	pos     int
	fetched bool
	closed  bool
}

func (c *Cursor) fetchErr() error {
	if c.fetched {
		return nil
	}
	c.fetched = true
	return c.resp.FetchErr
}

func (c *Cursor) FetchOne() (*database.Row, error) {
	if err := c.fetchErr(); err != nil {
		return nil, err
	}
	if c.pos >= len(c.resp.Rows) {
		return nil, nil
	}
	row := &database.Row{Columns: c.resp.Columns, Values: c.resp.Rows[c.pos]}
	c.pos++
	return row, nil
}

func (c *Cursor) FetchAll() ([]database.Row, error) {
	if err := c.fetchErr(); err != nil {
		return nil, err
	}
	out := make([]database.Row, 0, len(c.resp.Rows)-c.pos)
	for ; c.pos < len(c.resp.Rows); c.pos++ {
		out = append(out, database.Row{Columns: c.resp.Columns, Values: c.resp.Rows[c.pos]})
	}
	return out, nil
}

func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.resp.CloseErr
}

var (
	_ connector.Pool  = (*Pool)(nil)
	_ database.Conn   = (*Conn)(nil)
	_ database.Cursor = (*Cursor)(nil)
)
