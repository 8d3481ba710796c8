// Package queryfn turns parameterized SQL statements into reusable query
// functions backed by a bounded connection pool.
//
// Each call of a query function borrows one pooled connection, executes the
// statement, shapes the cursor by its Returning kind, commits or rolls back,
// and hands the connection back on every path out of the call.
//
//	db, err := queryfn.Open(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	maxID := db.MustBuild(queryfn.Descriptor{
//		SQL:       "SELECT max(id) FROM t",
//		Returning: queryfn.Scalar,
//		Default:   0,
//	})
//	id, err := maxID.Call(ctx)
package queryfn

import (
	"context"

	"github.com/Konsultn-Engineering/queryfn/connector"
	"github.com/Konsultn-Engineering/queryfn/logger"
	"github.com/Konsultn-Engineering/queryfn/query"

	_ "github.com/Konsultn-Engineering/queryfn/providers/postgres"
	_ "github.com/Konsultn-Engineering/queryfn/providers/sqldb"
)

type (
	Config     = connector.Config
	PoolConfig = connector.PoolConfig
	PoolStats  = connector.PoolStats
	Descriptor = query.Descriptor
	Query      = query.Query
	Named      = query.Named
	Returning  = query.Returning
	Transform  = query.Transform
)

const (
	Nothing = query.Nothing
	Scalar  = query.Scalar
	Row     = query.Row
	Rows    = query.Rows
)

// DB is a query factory bound to the pool it opened.
type DB struct {
	*query.Factory
	pool connector.Pool
}

// Open opens a pool for cfg.Driver and returns a factory over it.
func Open(ctx context.Context, cfg Config, opts ...query.Option) (*DB, error) {
	pool, err := connector.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &DB{Factory: query.NewFactory(pool, opts...), pool: pool}, nil
}

// OpenFile loads the YAML configuration at path (environment overrides
// applied), initializes the global logger from it and opens the pool.
func OpenFile(ctx context.Context, path string, opts ...query.Option) (*DB, error) {
	cfg, err := connector.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	logger.Init(logger.LogLevel(cfg.Logging.Level), cfg.Logging.Format)
	return Open(ctx, cfg, opts...)
}

// Pool returns the underlying connection pool.
func (db *DB) Pool() connector.Pool { return db.pool }

func (db *DB) Stats() PoolStats { return db.pool.Stats() }

func (db *DB) Ping(ctx context.Context) error { return db.pool.Ping(ctx) }

func (db *DB) Close() error { return db.pool.Close() }
