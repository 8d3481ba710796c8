package dialect

// Dialect describes how a backend spells bound parameters.
type Dialect interface {
	Name() string
	// Placeholder returns the marker for the n-th (1-based) positional parameter.
	Placeholder(n int) string
}

// ForDriver picks the dialect for a registered provider name.
func ForDriver(driver string) Dialect {
	switch driver {
	case "postgres", "postgresql", "pgx":
		return NewPostgresDialect()
	case "tidb":
		return NewTiDBDialect()
	case "sqlite", "sqlite3":
		return NewSQLiteDialect()
	default:
		return NewMySQLDialect()
	}
}
