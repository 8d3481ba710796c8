package database

import (
	"context"
	"database/sql"
	"errors"
)

// SQLConn implements Conn over a *sql.Conn taken from a *sql.DB pool.
type SQLConn struct {
	conn     *sql.Conn
	tx       *sql.Tx
	released bool
}

// NewSQLConn wraps a connection returned by (*sql.DB).Conn.
func NewSQLConn(conn *sql.Conn) *SQLConn {
	return &SQLConn{conn: conn}
}

// Execute runs query inside the connection's transaction, beginning one if needed.
func (c *SQLConn) Execute(ctx context.Context, query string, args ...any) (Cursor, error) {
	if c.tx == nil {
		tx, err := c.conn.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		c.tx = tx
	}

	rows, err := c.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &SQLCursor{rows: rows}, nil
}

// Commit commits the open transaction, if any.
func (c *SQLConn) Commit(context.Context) error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	return tx.Commit()
}

// Rollback aborts the open transaction, if any.
func (c *SQLConn) Rollback(context.Context) error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// Release rolls back any open transaction and returns the connection to the
// database/sql pool. Calls after the first are no-ops.
func (c *SQLConn) Release(ctx context.Context) error {
	if c.released {
		return nil
	}
	c.released = true

	rbErr := c.Rollback(ctx)
	closeErr := c.conn.Close()
	return errors.Join(rbErr, closeErr)
}

// SQLCursor implements Cursor over *sql.Rows.
type SQLCursor struct {
	rows    *sql.Rows
	columns []string
	done    bool
}

// FetchOne returns the next row or nil when the result is exhausted.
func (c *SQLCursor) FetchOne() (*Row, error) {
	if c.done {
		return nil, nil
	}
	if c.columns == nil {
		cols, err := c.rows.Columns()
		if err != nil {
			return nil, err
		}
		c.columns = cols
	}
	if !c.rows.Next() {
		c.done = true
		return nil, c.rows.Err()
	}

	vals := make([]any, len(c.columns))
	dest := make([]any, len(c.columns))
	for i := range vals {
		dest[i] = &vals[i]
	}
	if err := c.rows.Scan(dest...); err != nil {
		return nil, err
	}
	return &Row{Columns: c.columns, Values: vals}, nil
}

// FetchAll returns every remaining row.
func (c *SQLCursor) FetchAll() ([]Row, error) {
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

// Close drains unread rows, so drivers that step lazily (sqlite3) run the
// statement to completion, then releases the result set. Iteration errors
// are reported before close errors.
func (c *SQLCursor) Close() error {
	for !c.done && c.rows.Next() {
	}
	c.done = true
	iterErr := c.rows.Err()
	closeErr := c.rows.Close()
	if iterErr != nil {
		return iterErr
	}
	return closeErr
}

var (
	_ Conn   = (*SQLConn)(nil)
	_ Cursor = (*SQLCursor)(nil)
)
