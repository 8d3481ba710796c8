// Package schema maps result rows onto Go structs.
//
// Columns are matched to exported fields by db tag, or by the snake_case form
// of the field name when untagged. Columns without a matching field are
// ignored. Untagged embedded structs are flattened.
//
//	type User struct {
//		ID        int64     `db:"id"`
//		Email     string
//		CreatedAt time.Time `db:"column:created"`
//		Secret    string    `db:"-"`
//	}
//
//	getUser := f.MustBuild(query.Descriptor{
//		SQL:       "SELECT id, email, created FROM users WHERE id = $1",
//		Returning: query.Row,
//		Transform: schema.Into[User](),
//	})
package schema

import (
	"fmt"
	"reflect"

	"github.com/Konsultn-Engineering/queryfn/database"
)

// Scan maps row onto a new T. T must be a struct type.
func Scan[T any](row database.Row) (T, error) {
	var out T
	meta, err := Introspect(reflect.TypeOf(out))
	if err != nil {
		return out, err
	}
	if err := scanInto(meta, reflect.ValueOf(&out).Elem(), row); err != nil {
		return out, err
	}
	return out, nil
}

// ScanAll maps every row onto a T.
func ScanAll[T any](rows []database.Row) ([]T, error) {
	var zero T
	meta, err := Introspect(reflect.TypeOf(zero))
	if err != nil {
		return nil, err
	}
	out := make([]T, len(rows))
	for i, row := range rows {
		if err := scanInto(meta, reflect.ValueOf(&out[i]).Elem(), row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return out, nil
}

func scanInto(meta *EntityMeta, dest reflect.Value, row database.Row) error {
	for i, col := range row.Columns {
		if i >= len(row.Values) {
			break
		}
		fm, ok := meta.Field(col)
		if !ok {
			continue
		}
		v, err := Convert(row.Values[i], fm.Type)
		if err != nil {
			return fmt.Errorf("column %q into %s.%s: %w", col, meta.Type.Name(), fm.Name, err)
		}
		dest.FieldByIndex(fm.Index).Set(v)
	}
	return nil
}

// Into returns a transform mapping a Row result onto T. A nil result, as
// produced by a missing row with no default, passes through as nil.
func Into[T any]() func(any) (any, error) {
	return func(res any) (any, error) {
		switch v := res.(type) {
		case nil:
			return nil, nil
		case database.Row:
			return Scan[T](v)
		case *database.Row:
			if v == nil {
				return nil, nil
			}
			return Scan[T](*v)
		case T:
			return v, nil
		}
		return nil, fmt.Errorf("cannot map %T onto a struct", res)
	}
}

// IntoSlice returns a transform mapping a Rows result onto []T.
func IntoSlice[T any]() func(any) (any, error) {
	return func(res any) (any, error) {
		switch v := res.(type) {
		case nil:
			return []T{}, nil
		case []database.Row:
			return ScanAll[T](v)
		}
		return nil, fmt.Errorf("cannot map %T onto a slice", res)
	}
}
