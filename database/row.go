package database

// Row is one result row: column names and values in select order. A SQL NULL
// is a nil value.
type Row struct {
	Columns []string
	Values  []any
}

func (r Row) Len() int { return len(r.Values) }

// Index returns the i-th value, or nil when out of range.
func (r Row) Index(i int) any {
	if i < 0 || i >= len(r.Values) {
		return nil
	}
	return r.Values[i]
}

// Get returns the value of the first column named name.
func (r Row) Get(name string) (any, bool) {
	for i, c := range r.Columns {
		if c == name && i < len(r.Values) {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Map returns the row keyed by column name. Later duplicates win.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Values))
	for i, c := range r.Columns {
		if i < len(r.Values) {
			m[c] = r.Values[i]
		}
	}
	return m
}
