package query

import (
	"context"
	"strings"
	"time"

	"github.com/Konsultn-Engineering/queryfn/cache"
	"github.com/Konsultn-Engineering/queryfn/database"
	"github.com/Konsultn-Engineering/queryfn/dialect"
	"github.com/Konsultn-Engineering/queryfn/errs"
	"github.com/Konsultn-Engineering/queryfn/logger"
)

// DefaultRollbackTimeout bounds the rollback issued after a failed step.
const DefaultRollbackTimeout = 5 * time.Second

// Pool is the part of connector.Pool a query function needs.
type Pool interface {
	Acquire(ctx context.Context) (database.Conn, error)
	Release(conn database.Conn)
	Dialect() dialect.Dialect
}

// Factory builds query functions bound to one pool. It is safe for
// concurrent use; it holds no per-call state.
type Factory struct {
	pool      Pool
	templates *cache.TemplateCache
	log       *logger.Logger

	rollbackTimeout time.Duration
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger routes invocation logs to l.
func WithLogger(l *logger.Logger) Option {
	return func(f *Factory) { f.log = l }
}

// WithTemplateCache shares a keyed-template cache between factories.
func WithTemplateCache(c *cache.TemplateCache) Option {
	return func(f *Factory) { f.templates = c }
}

// WithRollbackTimeout bounds the rollback after a failed step. The rollback
// ignores cancellation of the caller's context, so it needs its own limit.
func WithRollbackTimeout(d time.Duration) Option {
	return func(f *Factory) { f.rollbackTimeout = d }
}

// NewFactory creates a factory over pool.
func NewFactory(pool Pool, opts ...Option) *Factory {
	f := &Factory{pool: pool}
	for _, opt := range opts {
		opt(f)
	}
	if f.templates == nil {
		f.templates = cache.NewTemplateCache(cache.DefaultTemplateCacheSize)
	}
	if f.log == nil {
		f.log = logger.Get()
	}
	if f.rollbackTimeout <= 0 {
		f.rollbackTimeout = DefaultRollbackTimeout
	}
	return f
}

// Pool returns the pool the factory's queries borrow from.
func (f *Factory) Pool() Pool { return f.pool }

// Build validates d and returns its query function. An unknown Returning
// kind or empty SQL fails here with *errs.ConfigurationError, never at call
// time.
func (f *Factory) Build(d Descriptor) (*Query, error) {
	if f.pool == nil {
		return nil, errs.Configf("pool", "is required")
	}
	if strings.TrimSpace(d.SQL) == "" {
		return nil, errs.Configf("sql", "statement is empty")
	}
	extract, err := resolveExtractor(d.Returning, d.Default)
	if err != nil {
		return nil, err
	}
	if d.Name == "" {
		d.Name = deriveName(d.SQL)
	}

	return &Query{
		desc:      d,
		extract:   extract,
		pool:      f.pool,
		templates: f.templates,
		log:       f.log.With("query", d.Name, "returning", d.Returning.String()),

		rollbackTimeout: f.rollbackTimeout,
	}, nil
}

// MustBuild is like Build but panics on error. Intended for package-level
// query declarations.
func (f *Factory) MustBuild(d Descriptor) *Query {
	q, err := f.Build(d)
	if err != nil {
		panic(err)
	}
	return q
}

// Build is shorthand for NewFactory(pool).Build(d).
func Build(pool Pool, d Descriptor) (*Query, error) {
	return NewFactory(pool).Build(d)
}
