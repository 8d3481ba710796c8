package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/queryfn/dialect"
	"github.com/Konsultn-Engineering/queryfn/errs"
)

func TestPoolDefaults(t *testing.T) {
	p := New(Config{})
	assert.Equal(t, "postgres", p.Dialect().Name())
	assert.Equal(t, 1, p.Stats().MaxOpen)
	assert.NotEmpty(t, p.ID())

	p = New(Config{Size: 4, Dialect: dialect.NewSQLiteDialect()})
	assert.Equal(t, "sqlite3", p.Dialect().Name())
	assert.Equal(t, 4, p.Stats().Idle)
}

func TestScriptedRows(t *testing.T) {
	ctx := context.Background()
	p := New(Config{})
	p.OnQuery("SELECT id FROM t").ReturnRows([]string{"id"}, []any{1}, []any{2})

	conn, err := p.Acquire(ctx)
	require.NoError(t, err)
	defer p.Release(conn)

	cur, err := conn.Execute(ctx, "SELECT id FROM t")
	require.NoError(t, err)

	first, err := cur.FetchOne()
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 1, first.Index(0))

	rest, err := cur.FetchAll()
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, 2, rest[0].Index(0))

	none, err := cur.FetchOne()
	require.NoError(t, err)
	assert.Nil(t, none)
	require.NoError(t, cur.Close())
}

func TestFetchErrorOnlyOnce(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	p := New(Config{})
	p.OnQuery("SELECT 1").FailFetch(boom).ReturnRows([]string{"x"}, []any{1})

	conn, err := p.Acquire(ctx)
	require.NoError(t, err)
	cur, err := conn.Execute(ctx, "SELECT 1")
	require.NoError(t, err)

	_, err = cur.FetchOne()
	assert.ErrorIs(t, err, boom)
	row, err := cur.FetchOne()
	require.NoError(t, err)
	assert.NotNil(t, row)
	p.Release(conn)
}

func TestReleaseCountsResets(t *testing.T) {
	ctx := context.Background()
	p := New(Config{})

	conn, err := p.Acquire(ctx)
	require.NoError(t, err)
	_, err = conn.Execute(ctx, "SELECT 1")
	require.NoError(t, err)
	p.Release(conn)
	p.Release(conn)

	c := p.Counts()
	assert.Equal(t, 1, c.Acquires)
	assert.Equal(t, 1, c.Releases)
	assert.Equal(t, 1, c.Resets)
	assert.Zero(t, c.InUse)
}

func TestAcquireBlocksUntilRelease(t *testing.T) {
	p := New(Config{Size: 1})
	first, err := p.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(ctx)
	var acqErr *errs.AcquisitionError
	require.ErrorAs(t, err, &acqErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	got := make(chan error, 1)
	go func() {
		c, err := p.Acquire(context.Background())
		if err == nil {
			p.Release(c)
		}
		got <- err
	}()
	p.Release(first)
	require.NoError(t, <-got)
	assert.Equal(t, 1, p.Counts().MaxInUse)
}

func TestFailAcquireAndClose(t *testing.T) {
	p := New(Config{})
	p.FailAcquire(errors.New("too many clients"))
	_, err := p.Acquire(context.Background())
	assert.ErrorIs(t, err, errs.ErrAcquisition)

	p.FailAcquire(nil)
	require.NoError(t, p.Close())
	_, err = p.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.Zero(t, p.Counts().Acquires)
}
