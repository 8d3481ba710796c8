package sqldb

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/queryfn/connector"
	"github.com/Konsultn-Engineering/queryfn/errs"
	"github.com/Konsultn-Engineering/queryfn/logger"
	"github.com/Konsultn-Engineering/queryfn/query"
)

func openSQLite(t *testing.T, maxOpen int) connector.Pool {
	t.Helper()
	cfg := connector.DefaultConfig()
	cfg.Driver = "sqlite3"
	cfg.Path = filepath.Join(t.TempDir(), "queryfn.db")
	cfg.Pool.MinOpen = 1
	cfg.Pool.MaxOpen = maxOpen

	pool, err := connector.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool
}

func TestRegistered(t *testing.T) {
	for _, name := range []string{"mysql", "tidb", "sqlite3"} {
		assert.Contains(t, connector.Providers(), name)
	}
}

func TestMySQLDSN(t *testing.T) {
	p := &Provider{name: "tidb", driver: "mysql", defaultPort: 4000, dsn: mysqlDSN}
	cfg := connector.Config{
		Host:           "db.internal",
		Database:       "app",
		Username:       "app",
		Password:       "s3cret",
		ConnectTimeout: 3 * time.Second,
		Params:         map[string]string{"sql_mode": "TRADITIONAL"},
	}

	parsed, err := mysql.ParseDSN(p.DSN(cfg))
	require.NoError(t, err)
	assert.Equal(t, "db.internal:4000", parsed.Addr)
	assert.Equal(t, "app", parsed.DBName)
	assert.Equal(t, "s3cret", parsed.Passwd)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, 3*time.Second, parsed.Timeout)
	assert.Equal(t, "TRADITIONAL", parsed.Params["sql_mode"])

	assert.Equal(t, p.DSN(cfg), p.DSN(cfg))

	cfg.DSN = "root@tcp(localhost)/x"
	assert.Equal(t, "root@tcp(localhost)/x", p.DSN(cfg))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:/tmp/a.db?_busy_timeout=5000", sqliteDSN(connector.Config{Path: "/tmp/a.db"}, 0))
	assert.Equal(t, "file::memory:?_busy_timeout=5000&cache=shared", sqliteDSN(connector.Config{Path: ":memory:"}, 0))
	assert.Equal(t, "file:a.db?_busy_timeout=100&_foreign_keys=1",
		sqliteDSN(connector.Config{Path: "file:a.db", Params: map[string]string{"_foreign_keys": "1", "_busy_timeout": "100"}}, 0))
}

func TestOpenRejectsInvalidPool(t *testing.T) {
	cfg := connector.DefaultConfig()
	cfg.Driver = "sqlite3"
	cfg.Path = filepath.Join(t.TempDir(), "x.db")
	cfg.Pool.MinOpen = 5
	cfg.Pool.MaxOpen = 2

	_, err := connector.Open(context.Background(), cfg)
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestSQLiteQueryFunctions(t *testing.T) {
	ctx := context.Background()
	pool := openSQLite(t, 2)
	f := query.NewFactory(pool, query.WithLogger(logger.Discard()))

	create := f.MustBuild(query.Descriptor{SQL: "CREATE TABLE t (id INTEGER PRIMARY KEY, x INTEGER NOT NULL)", Commit: true})
	_, err := create.Call(ctx)
	require.NoError(t, err)

	maxID := f.MustBuild(query.Descriptor{SQL: "SELECT max(id) FROM t", Returning: query.Scalar, Default: 0})
	got, err := maxID.Call(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	insert := f.MustBuild(query.Descriptor{SQL: "INSERT INTO t(x) VALUES(?)", Returning: query.Nothing, Commit: true})
	for i := 0; i < 3; i++ {
		_, err = insert.Call(ctx, i*10)
		require.NoError(t, err)
	}

	got, err = maxID.Call(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)

	insertNamed := f.MustBuild(query.Descriptor{SQL: "INSERT INTO t(x) VALUES(:x)", Commit: true})
	_, err = insertNamed.Call(ctx, query.Named{"x": 40})
	require.NoError(t, err)

	rows := f.MustBuild(query.Descriptor{SQL: "SELECT id, x FROM t ORDER BY id", Returning: query.Rows})
	all, err := rows.Call(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	assert.Zero(t, pool.Stats().InUse)
}

func TestSQLiteUncommittedWriteIsDiscarded(t *testing.T) {
	ctx := context.Background()
	pool := openSQLite(t, 1)
	f := query.NewFactory(pool, query.WithLogger(logger.Discard()))

	_, err := f.MustBuild(query.Descriptor{SQL: "CREATE TABLE t (x INTEGER)", Commit: true}).Call(ctx)
	require.NoError(t, err)

	_, err = f.MustBuild(query.Descriptor{SQL: "INSERT INTO t(x) VALUES(1)", Commit: false}).Call(ctx)
	require.NoError(t, err)

	count := query.Typed[int64](f.MustBuild(query.Descriptor{SQL: "SELECT count(*) FROM t", Returning: query.Scalar}))
	n, err := count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteExecutionError(t *testing.T) {
	ctx := context.Background()
	pool := openSQLite(t, 1)
	f := query.NewFactory(pool, query.WithLogger(logger.Discard()))

	_, err := f.MustBuild(query.Descriptor{SQL: "SELECT * FROM missing_table", Returning: query.Rows}).Call(ctx)
	var qe *errs.QueryExecutionError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, errs.PhaseExecute, qe.Phase)

	// The single connection must be back in the pool.
	_, err = f.MustBuild(query.Descriptor{SQL: "SELECT 1", Returning: query.Scalar}).Call(ctx)
	require.NoError(t, err)
	assert.Zero(t, pool.Stats().InUse)
}

func TestSQLiteConstraintViolationIsExecutionPhase(t *testing.T) {
	ctx := context.Background()
	pool := openSQLite(t, 1)
	f := query.NewFactory(pool, query.WithLogger(logger.Discard()))

	_, err := f.MustBuild(query.Descriptor{SQL: "CREATE TABLE t (x INTEGER PRIMARY KEY)", Commit: true}).Call(ctx)
	require.NoError(t, err)

	insert := f.MustBuild(query.Descriptor{SQL: "INSERT INTO t(x) VALUES(?)", Commit: true})
	_, err = insert.Call(ctx, 1)
	require.NoError(t, err)

	_, err = insert.Call(ctx, 1)
	var qe *errs.QueryExecutionError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, errs.PhaseExecute, qe.Phase)
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")
	assert.Zero(t, pool.Stats().InUse)

	_, err = insert.Call(ctx, 2)
	require.NoError(t, err)
}

func TestSQLiteConcurrentCallers(t *testing.T) {
	ctx := context.Background()
	pool := openSQLite(t, 2)
	f := query.NewFactory(pool, query.WithLogger(logger.Discard()))
	q := f.MustBuild(query.Descriptor{SQL: "SELECT 1", Returning: query.Scalar})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := q.Call(ctx)
			assert.NoError(t, err)
			assert.Equal(t, int64(1), got)
		}()
	}
	wg.Wait()

	s := pool.Stats()
	assert.Zero(t, s.InUse)
	assert.Equal(t, 2, s.MaxOpen)
	assert.Equal(t, int64(10), s.AcquireCount)
}
