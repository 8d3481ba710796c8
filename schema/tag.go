package schema

import (
	"reflect"
	"strings"
)

// ParsedTag is the column mapping read from a field's db tag.
type ParsedTag struct {
	ColumnName string
	Skip       bool
}

// ParseTag reads the db tag of a field.
//
// Supported tag syntax:
//
//	`db:"column_name"`          // column name
//	`db:"column:column_name"`   // explicit column option
//	`db:"column:id;primary"`    // other options are ignored
//	`db:"-"`                    // skip the field
//
// Fields without a tag map to the snake_case form of their name.
func ParseTag(fieldName string, tag reflect.StructTag) ParsedTag {
	value, ok := tag.Lookup("db")
	if !ok || value == "" {
		return ParsedTag{ColumnName: ColumnName(fieldName)}
	}
	if value == "-" {
		return ParsedTag{Skip: true}
	}

	parsed := ParsedTag{ColumnName: ColumnName(fieldName)}
	if !strings.ContainsAny(value, ";:") {
		parsed.ColumnName = strings.TrimSpace(value)
		return parsed
	}

	for _, option := range strings.Split(value, ";") {
		key, val, found := strings.Cut(strings.TrimSpace(option), ":")
		if !found {
			continue
		}
		if strings.TrimSpace(key) == "column" {
			if val = strings.TrimSpace(val); val != "" {
				parsed.ColumnName = val
			}
		}
	}
	return parsed
}
