package query

import "strings"

// Transform post-processes a shaped result before it is returned.
type Transform func(result any) (any, error)

// Descriptor declares one query function.
type Descriptor struct {
	// Name labels the query in logs and errors. Derived from SQL when empty.
	Name string
	// SQL is the statement text. Positional parameters use the driver's own
	// placeholders ($1 or ?); keyed calls use :name.
	SQL       string
	Returning Returning
	// Default replaces a missing row (Scalar, Row) or a NULL scalar.
	Default any
	// Commit commits the transaction after a successful execution.
	Commit bool
	// Transform, when set, is applied to the shaped result.
	Transform Transform
}

const maxDerivedName = 60

func deriveName(sql string) string {
	name := strings.Join(strings.Fields(sql), " ")
	if len(name) > maxDerivedName {
		name = name[:maxDerivedName-3] + "..."
	}
	return name
}
