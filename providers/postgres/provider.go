// Package postgres provides the pgx-backed connection pool. Importing it
// registers the "postgres" driver with the connector package.
package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"

	"github.com/Konsultn-Engineering/queryfn/connector"
	"github.com/Konsultn-Engineering/queryfn/database"
	"github.com/Konsultn-Engineering/queryfn/dialect"
	"github.com/Konsultn-Engineering/queryfn/errs"
	"github.com/Konsultn-Engineering/queryfn/logger"
	"github.com/Konsultn-Engineering/queryfn/utils"
)

const (
	driverName     = "postgres"
	releaseTimeout = 5 * time.Second
)

type Provider struct{}

func init() {
	connector.Register(driverName, &Provider{})
}

func (p *Provider) Dialect() dialect.Dialect {
	return dialect.NewPostgresDialect()
}

// Open creates the pool and pings the server within ctx. Connections beyond
// the first are opened in the background up to Pool.MinOpen.
func (p *Provider) Open(ctx context.Context, cfg connector.Config) (connector.Pool, error) {
	log := logger.Get().With("driver", driverName)

	poolCfg, err := buildPoolConfig(cfg, log)
	if err != nil {
		return nil, err
	}

	// pgxpool keeps using this context for min-connection upkeep.
	pool, err := pgxpool.NewWithConfig(context.WithoutCancel(ctx), poolCfg)
	if err != nil {
		return nil, &errs.AcquisitionError{Pool: driverName, Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &errs.AcquisitionError{Pool: driverName, Err: err}
	}

	id := utils.NewPoolID().String()
	log.Info("connection pool opened",
		"pool_id", id,
		"host", poolCfg.ConnConfig.Host,
		"database", poolCfg.ConnConfig.Database,
		"min_open", poolCfg.MinConns,
		"max_open", poolCfg.MaxConns,
	)
	return &Pool{
		id:             id,
		pool:           pool,
		acquireTimeout: cfg.Pool.AcquireTimeout,
		log:            log.With("pool_id", id),
	}, nil
}

// buildDSN returns cfg.DSN when set, otherwise a postgres:// URL from the
// individual fields.
func buildDSN(cfg connector.Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	return connector.NewDSNBuilder("postgres").
		Auth(cfg.Username, cfg.Password).
		Host(cfg.Host, cfg.Port).
		Database(cfg.Database).
		Param("sslmode", cfg.SSLMode).
		Params(cfg.Params).
		Build()
}

func buildPoolConfig(cfg connector.Config, log *logger.Logger) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(buildDSN(cfg))
	if err != nil {
		return nil, errs.Configf("dsn", "%v", err)
	}

	poolCfg.MinConns = int32(cfg.Pool.MinOpen)
	poolCfg.MaxConns = int32(cfg.Pool.MaxOpen)
	if cfg.Pool.MaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.Pool.MaxLifetime
	}
	if cfg.Pool.MaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.Pool.MaxIdleTime
	}
	if cfg.Pool.HealthCheckFreq > 0 {
		poolCfg.HealthCheckPeriod = cfg.Pool.HealthCheckFreq
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.Trace {
		poolCfg.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   traceLogger(log),
			LogLevel: tracelog.LogLevelDebug,
		}
	}
	return poolCfg, nil
}

// traceLogger forwards pgx statement traces to log.
func traceLogger(log *logger.Logger) tracelog.Logger {
	return tracelog.LoggerFunc(func(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
		attrs := make([]slog.Attr, 0, len(data))
		for k, v := range data {
			attrs = append(attrs, slog.Any(k, v))
		}
		log.LogAttrs(ctx, slogLevel(level), "pgx: "+msg, attrs...)
	})
}

func slogLevel(level tracelog.LogLevel) slog.Level {
	switch {
	case level <= tracelog.LogLevelError:
		return slog.LevelError
	case level == tracelog.LogLevelWarn:
		return slog.LevelWarn
	case level == tracelog.LogLevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// Pool implements connector.Pool over pgxpool.
type Pool struct {
	id             string
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
	log            *logger.Logger
}

func (p *Pool) ID() string               { return p.id }
func (p *Pool) Name() string             { return driverName }
func (p *Pool) Dialect() dialect.Dialect { return dialect.NewPostgresDialect() }

// Acquire borrows a connection, waiting up to the configured acquire timeout.
func (p *Pool) Acquire(ctx context.Context) (database.Conn, error) {
	if p.acquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.acquireTimeout)
		defer cancel()
	}
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, &errs.AcquisitionError{Pool: driverName, Err: err}
	}
	return database.NewPgxConn(conn), nil
}

// Release rolls back any transaction left open and returns the connection.
func (p *Pool) Release(conn database.Conn) {
	c, ok := conn.(*database.PgxConn)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := c.Release(ctx); err != nil {
		p.log.WarnWithErr("connection reset failed", err)
	}
}

func (p *Pool) Stats() connector.PoolStats {
	s := p.pool.Stat()
	return connector.PoolStats{
		OpenConnections: int(s.TotalConns()),
		InUse:           int(s.AcquiredConns()),
		Idle:            int(s.IdleConns()),
		MaxOpen:         int(s.MaxConns()),
		AcquireCount:    s.AcquireCount(),
	}
}

func (p *Pool) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Pool) Close() error {
	p.pool.Close()
	p.log.Info("connection pool closed")
	return nil
}

var _ connector.Pool = (*Pool)(nil)
