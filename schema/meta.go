package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// FieldMeta describes one mapped struct field.
type FieldMeta struct {
	Name   string
	Column string
	Index  []int
	Type   reflect.Type
}

// EntityMeta is the column mapping of a struct type.
type EntityMeta struct {
	Type      reflect.Type
	Fields    []*FieldMeta
	ColumnMap map[string]*FieldMeta
}

// Field returns the field mapped to column, matching case-insensitively when
// there is no exact match.
func (m *EntityMeta) Field(column string) (*FieldMeta, bool) {
	if f, ok := m.ColumnMap[column]; ok {
		return f, true
	}
	f, ok := m.ColumnMap[strings.ToLower(column)]
	return f, ok
}

var entityCache sync.Map // map[reflect.Type]*EntityMeta

// Introspect returns the cached mapping for t, building it on first use.
func Introspect(t reflect.Type) (*EntityMeta, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("invalid model type: %s (expected struct)", t.Kind())
	}
	if meta, ok := entityCache.Load(t); ok {
		return meta.(*EntityMeta), nil
	}

	meta := &EntityMeta{Type: t, ColumnMap: make(map[string]*FieldMeta, t.NumField())}
	collectFields(meta, t, nil)

	actual, _ := entityCache.LoadOrStore(t, meta)
	return actual.(*EntityMeta), nil
}

// collectFields walks t, flattening untagged embedded structs. The first
// field claiming a column wins.
func collectFields(meta *EntityMeta, t reflect.Type, parent []int) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int(nil), parent...), i)

		if f.Anonymous && f.Type.Kind() == reflect.Struct && f.Tag.Get("db") == "" {
			collectFields(meta, f.Type, index)
			continue
		}
		if !f.IsExported() {
			continue
		}

		tag := ParseTag(f.Name, f.Tag)
		if tag.Skip {
			continue
		}
		if _, taken := meta.ColumnMap[tag.ColumnName]; taken {
			continue
		}

		fm := &FieldMeta{Name: f.Name, Column: tag.ColumnName, Index: index, Type: f.Type}
		meta.Fields = append(meta.Fields, fm)
		meta.ColumnMap[fm.Column] = fm
		if lower := strings.ToLower(fm.Column); lower != fm.Column {
			if _, taken := meta.ColumnMap[lower]; !taken {
				meta.ColumnMap[lower] = fm
			}
		}
	}
}
