package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxConn implements Conn over a connection borrowed from a pgxpool.Pool.
type PgxConn struct {
	conn     *pgxpool.Conn
	tx       pgx.Tx
	released bool
}

// NewPgxConn wraps a connection acquired from pgxpool.
func NewPgxConn(conn *pgxpool.Conn) *PgxConn {
	return &PgxConn{conn: conn}
}

// Execute runs sql inside the connection's transaction, beginning one if needed.
func (c *PgxConn) Execute(ctx context.Context, sql string, args ...any) (Cursor, error) {
	if c.tx == nil {
		tx, err := c.conn.Begin(ctx)
		if err != nil {
			return nil, err
		}
		c.tx = tx
	}

	rows, err := c.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return &PgxCursor{rows: rows}, nil
}

// Commit commits the open transaction, if any.
func (c *PgxConn) Commit(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	return tx.Commit(ctx)
}

// Rollback aborts the open transaction, if any.
func (c *PgxConn) Rollback(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// Release rolls back any open transaction and hands the connection back to
// pgxpool. Calls after the first are no-ops. pgxpool destroys connections
// that are not idle after the rollback attempt.
func (c *PgxConn) Release(ctx context.Context) error {
	if c.released {
		return nil
	}
	c.released = true

	err := c.Rollback(ctx)
	c.conn.Release()
	return err
}

// PgxCursor implements Cursor over pgx.Rows.
type PgxCursor struct {
	rows    pgx.Rows
	columns []string
	done    bool
}

func (c *PgxCursor) columnNames() []string {
	if c.columns == nil {
		fds := c.rows.FieldDescriptions()
		c.columns = make([]string, len(fds))
		for i, fd := range fds {
			c.columns[i] = fd.Name
		}
	}
	return c.columns
}

// FetchOne returns the next row or nil when the result is exhausted.
func (c *PgxCursor) FetchOne() (*Row, error) {
	if c.done {
		return nil, nil
	}
	if !c.rows.Next() {
		c.done = true
		return nil, c.rows.Err()
	}
	vals, err := c.rows.Values()
	if err != nil {
		return nil, err
	}
	return &Row{Columns: c.columnNames(), Values: vals}, nil
}

// FetchAll returns every remaining row.
func (c *PgxCursor) FetchAll() ([]Row, error) {
	out := make([]Row, 0)
	for {
		row, err := c.FetchOne()
		if err != nil {
			return nil, err
		}
		if row == nil {
			return out, nil
		}
		out = append(out, *row)
	}
}

// Close drains the result; statement errors pgx defers (e.g. constraint
// violations on INSERT) surface here.
func (c *PgxCursor) Close() error {
	c.rows.Close()
	return c.rows.Err()
}

// SQLState returns the SQLSTATE carried by a Postgres error, or "".
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

var (
	_ Conn   = (*PgxConn)(nil)
	_ Cursor = (*PgxCursor)(nil)
)
