package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowAccessors(t *testing.T) {
	r := Row{Columns: []string{"id", "email", "id"}, Values: []any{int64(1), "a@b.c", int64(2)}}

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, int64(1), r.Index(0))
	assert.Nil(t, r.Index(5))
	assert.Nil(t, r.Index(-1))

	v, ok := r.Get("id")
	assert.True(t, ok)
	assert.Equal(t, int64(1), v)

	_, ok = r.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, map[string]any{"id": int64(2), "email": "a@b.c"}, r.Map())
}
