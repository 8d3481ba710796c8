package connector

import (
	"context"

	"github.com/Konsultn-Engineering/queryfn/database"
	"github.com/Konsultn-Engineering/queryfn/dialect"
)

// Pool is a bounded set of live connections shared by query functions.
//
// Acquire blocks while all MaxOpen connections are borrowed and fails with
// *errs.AcquisitionError. Release never fails; it resets the connection
// (rolling back an open transaction) before handing it back, and is a no-op
// for a connection already released.
type Pool interface {
	ID() string
	Name() string
	Acquire(ctx context.Context) (database.Conn, error)
	Release(conn database.Conn)
	Dialect() dialect.Dialect
	Stats() PoolStats
	Ping(ctx context.Context) error
	Close() error
}

// PoolStats represents database connection pool statistics.
type PoolStats struct {
	OpenConnections int
	InUse           int
	Idle            int
	MaxOpen         int
	AcquireCount    int64
}
