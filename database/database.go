package database

import "context"

// Conn is one borrowed connection. A transaction is opened by the first
// Execute and ended by Commit or Rollback; whatever is still open when the
// pool takes the connection back is rolled back there.
//
// A Conn is owned by a single invocation and is not safe for concurrent use.
type Conn interface {
	Execute(ctx context.Context, sql string, args ...any) (Cursor, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Cursor reads the result of one Execute.
type Cursor interface {
	// FetchOne returns the next row, or nil once the result is exhausted.
	FetchOne() (*Row, error)
	// FetchAll returns every remaining row. The slice is never nil.
	FetchAll() ([]Row, error)
	// Close releases the result and reports errors the driver deferred
	// until the result was drained.
	Close() error
}
