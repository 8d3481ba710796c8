// Package sqldb provides database/sql-backed connection pools for MySQL, TiDB
// and SQLite. Importing it registers the "mysql", "tidb" and "sqlite3"
// drivers with the connector package.
package sqldb

import (
	"context"
	"database/sql"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Konsultn-Engineering/queryfn/connector"
	"github.com/Konsultn-Engineering/queryfn/database"
	"github.com/Konsultn-Engineering/queryfn/dialect"
	"github.com/Konsultn-Engineering/queryfn/errs"
	"github.com/Konsultn-Engineering/queryfn/logger"
	"github.com/Konsultn-Engineering/queryfn/utils"
)

const releaseTimeout = 5 * time.Second

// Provider opens database/sql pools for one driver.
type Provider struct {
	name        string
	driver      string
	defaultPort int
	dialect     dialect.Dialect
	dsn         func(cfg connector.Config, port int) string
}

func init() {
	connector.Register("mysql", &Provider{
		name: "mysql", driver: "mysql", defaultPort: 3306,
		dialect: dialect.NewMySQLDialect(), dsn: mysqlDSN,
	})
	connector.Register("tidb", &Provider{
		name: "tidb", driver: "mysql", defaultPort: 4000,
		dialect: dialect.NewTiDBDialect(), dsn: mysqlDSN,
	})
	sqlite := &Provider{
		name: "sqlite3", driver: "sqlite3",
		dialect: dialect.NewSQLiteDialect(), dsn: sqliteDSN,
	}
	connector.Register("sqlite3", sqlite)
	connector.Register("sqlite", sqlite)
}

func (p *Provider) Dialect() dialect.Dialect { return p.dialect }

// DSN returns the driver connection string for cfg.
func (p *Provider) DSN(cfg connector.Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	port := cfg.Port
	if port == 0 {
		port = p.defaultPort
	}
	return p.dsn(cfg, port)
}

// Open creates the pool, pings it and warms Pool.MinOpen connections.
func (p *Provider) Open(ctx context.Context, cfg connector.Config) (connector.Pool, error) {
	log := logger.Get().With("driver", p.name)

	db, err := sql.Open(p.driver, p.DSN(cfg))
	if err != nil {
		return nil, errs.Configf("dsn", "%v", err)
	}
	db.SetMaxOpenConns(cfg.Pool.MaxOpen)
	db.SetMaxIdleConns(cfg.Pool.MaxOpen)
	if cfg.Pool.MaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.Pool.MaxLifetime)
	}
	if cfg.Pool.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.Pool.MaxIdleTime)
	}

	if err := warm(ctx, db, cfg.Pool.MinOpen); err != nil {
		db.Close()
		return nil, &errs.AcquisitionError{Pool: p.name, Err: err}
	}

	id := utils.NewPoolID().String()
	log.Info("connection pool opened",
		"pool_id", id,
		"min_open", cfg.Pool.MinOpen,
		"max_open", cfg.Pool.MaxOpen,
	)
	return &Pool{
		id:             id,
		name:           p.name,
		db:             db,
		dialect:        p.dialect,
		acquireTimeout: cfg.Pool.AcquireTimeout,
		log:            log.With("pool_id", id),
	}, nil
}

// warm opens n connections and returns them to the idle set.
func warm(ctx context.Context, db *sql.DB, n int) error {
	conns := make([]*sql.Conn, 0, n)
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()
	for i := 0; i < n; i++ {
		c, err := db.Conn(ctx)
		if err != nil {
			return err
		}
		if err := c.PingContext(ctx); err != nil {
			c.Close()
			return err
		}
		conns = append(conns, c)
	}
	return nil
}

func mysqlDSN(cfg connector.Config, port int) string {
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	mc.DBName = cfg.Database
	mc.ParseTime = true
	if cfg.ConnectTimeout > 0 {
		mc.Timeout = cfg.ConnectTimeout
	}
	if len(cfg.Params) > 0 {
		mc.Params = make(map[string]string, len(cfg.Params))
		for k, v := range cfg.Params {
			mc.Params[k] = v
		}
	}
	return mc.FormatDSN()
}

// sqliteDSN builds a file: URI. ":memory:" becomes a shared-cache memory
// database so every pooled connection sees the same data.
func sqliteDSN(cfg connector.Config, _ int) string {
	q := url.Values{}
	for k, v := range cfg.Params {
		q.Set(k, v)
	}

	if cfg.Path == ":memory:" {
		q.Set("cache", "shared")
	}
	if q.Get("_busy_timeout") == "" {
		q.Set("_busy_timeout", "5000")
	}

	dsn := "file:" + strings.TrimPrefix(cfg.Path, "file:")
	if enc := q.Encode(); enc != "" {
		dsn += "?" + enc
	}
	return dsn
}

// Pool implements connector.Pool over *sql.DB.
type Pool struct {
	id             string
	name           string
	db             *sql.DB
	dialect        dialect.Dialect
	acquireTimeout time.Duration
	acquires       atomic.Int64
	log            *logger.Logger
}

func (p *Pool) ID() string               { return p.id }
func (p *Pool) Name() string             { return p.name }
func (p *Pool) Dialect() dialect.Dialect { return p.dialect }

// DB exposes the underlying handle, e.g. for schema setup in tests.
func (p *Pool) DB() *sql.DB { return p.db }

// Acquire borrows a dedicated connection, waiting while MaxOpen are in use.
func (p *Pool) Acquire(ctx context.Context) (database.Conn, error) {
	if p.acquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.acquireTimeout)
		defer cancel()
	}
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, &errs.AcquisitionError{Pool: p.name, Err: err}
	}
	p.acquires.Add(1)
	return database.NewSQLConn(conn), nil
}

// Release rolls back any transaction left open and returns the connection.
func (p *Pool) Release(conn database.Conn) {
	c, ok := conn.(*database.SQLConn)
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
	s := p.db.Stats()
	return connector.PoolStats{
		OpenConnections: s.OpenConnections,
		InUse:           s.InUse,
		Idle:            s.Idle,
		MaxOpen:         s.MaxOpenConnections,
		AcquireCount:    p.acquires.Load(),
	}
}

func (p *Pool) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Pool) Close() error {
	err := p.db.Close()
	p.log.Info("connection pool closed")
	return err
}

var _ connector.Pool = (*Pool)(nil)
