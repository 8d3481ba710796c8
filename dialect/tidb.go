package dialect

// TiDB speaks the MySQL wire protocol and placeholder style.
type TiDB struct {
	*MySQL
}

func NewTiDBDialect() Dialect {
	return &TiDB{
		MySQL: NewMySQLDialect().(*MySQL),
	}
}

func (*TiDB) Name() string { return "tidb" }
