package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		dialect Dialect
		sql     string
		names   []string
	}{
		{
			name:    "postgres",
			query:   "SELECT * FROM users WHERE id = :id AND status = :status",
			dialect: NewPostgresDialect(),
			sql:     "SELECT * FROM users WHERE id = $1 AND status = $2",
			names:   []string{"id", "status"},
		},
		{
			name:    "mysql",
			query:   "UPDATE t SET x = :x WHERE id = :id",
			dialect: NewMySQLDialect(),
			sql:     "UPDATE t SET x = ? WHERE id = ?",
			names:   []string{"x", "id"},
		},
		{
			name:    "repeated name",
			query:   "SELECT :a, :a",
			dialect: NewPostgresDialect(),
			sql:     "SELECT $1, $2",
			names:   []string{"a", "a"},
		},
		{
			name:    "cast is not a parameter",
			query:   "SELECT :v::int",
			dialect: NewPostgresDialect(),
			sql:     "SELECT $1::int",
			names:   []string{"v"},
		},
		{
			name:    "quoted and commented text skipped",
			query:   "SELECT ':no', \":no\" -- :no\n, /* :no */ :yes",
			dialect: NewSQLiteDialect(),
			sql:     "SELECT ':no', \":no\" -- :no\n, /* :no */ ?",
			names:   []string{"yes"},
		},
		{
			name:    "dollar quoted block skipped",
			query:   "SELECT $body$ :no $body$, :yes",
			dialect: NewPostgresDialect(),
			sql:     "SELECT $body$ :no $body$, $1",
			names:   []string{"yes"},
		},
		{
			name:    "positional untouched",
			query:   "SELECT max(id) FROM t WHERE x > $1",
			dialect: NewPostgresDialect(),
			sql:     "SELECT max(id) FROM t WHERE x > $1",
			names:   nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, err := Compile(tt.query, tt.dialect)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, tpl.SQL)
			assert.Equal(t, tt.names, tpl.Names)
			assert.Equal(t, len(tt.names) > 0, tpl.HasParams())
		})
	}
}

func TestCompileUnterminated(t *testing.T) {
	for _, q := range []string{"SELECT 'abc", "SELECT /* x", "SELECT $q$ body"} {
		_, err := Compile(q, NewPostgresDialect())
		assert.Error(t, err, q)
	}
}

func TestTemplateBind(t *testing.T) {
	tpl, err := Compile("INSERT INTO t(x, y) VALUES(:x, :y)", NewPostgresDialect())
	require.NoError(t, err)

	args, err := tpl.Bind(map[string]any{"y": "b", "x": 1, "extra": true})
	require.NoError(t, err)
	assert.Equal(t, []any{1, "b"}, args)

	_, err = tpl.Bind(map[string]any{"x": 1})
	assert.EqualError(t, err, "missing value for :y")
}

func TestForDriver(t *testing.T) {
	assert.Equal(t, "postgres", ForDriver("postgres").Name())
	assert.Equal(t, "tidb", ForDriver("tidb").Name())
	assert.Equal(t, "?", ForDriver("tidb").Placeholder(3))
	assert.Equal(t, "sqlite3", ForDriver("sqlite3").Name())
	assert.Equal(t, "mysql", ForDriver("mysql").Name())
	assert.Equal(t, "$3", ForDriver("pgx").Placeholder(3))
}
