package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerInit(t *testing.T) {
	Init(InfoLevel, "text")
	require.NotNil(t, Get())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(ErrorLevel))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, DebugLevel, "json")
	l.With("pool", "postgres").ErrorWithErr("rollback failed", errors.New("boom"), "query", "q1")

	out := buf.String()
	assert.Contains(t, out, `"msg":"rollback failed"`)
	assert.Contains(t, out, `"pool":"postgres"`)
	assert.Contains(t, out, `"error":"boom"`)
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, WarnLevel, "text")
	l.Info("hidden")
	l.WarnWithErr("shown", errors.New("x"))

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
