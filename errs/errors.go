// Package errs holds the error taxonomy surfaced by query functions and pools.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched through errors.Is against the typed errors below.
var (
	// ErrConfiguration marks build-time and pool construction failures.
	ErrConfiguration = errors.New("configuration error")

	// ErrArgument marks a bad call shape.
	ErrArgument = errors.New("argument error")

	// ErrQueryExecution marks execute, extract or commit failures.
	ErrQueryExecution = errors.New("query execution error")

	// ErrAcquisition marks a failure to borrow a connection from the pool.
	ErrAcquisition = errors.New("connection acquisition error")

	// ErrTransform marks a failure inside a result transform.
	ErrTransform = errors.New("transform error")
)

// ConfigurationError is returned before any connection is used.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// Configf builds a ConfigurationError for field.
func Configf(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ArgumentError is returned when a query function is called with an invalid
// argument set. No connection has been acquired when it is returned.
type ArgumentError struct {
	Query  string
	Reason string
}

func (e *ArgumentError) Error() string {
	if e.Query == "" {
		return "argument error: " + e.Reason
	}
	return fmt.Sprintf("argument error: %s: %s", e.Query, e.Reason)
}

func (e *ArgumentError) Is(target error) bool { return target == ErrArgument }

// Phase names the invocation step that failed.
type Phase string

const (
	PhaseExecute Phase = "execute"
	PhaseExtract Phase = "extract"
	PhaseCommit  Phase = "commit"
)

// QueryExecutionError wraps the backend diagnostic of a failed invocation.
//
// Err is the original failure and is what Unwrap returns. RollbackErr is set
// when the rollback issued after Err failed too; it never replaces Err.
type QueryExecutionError struct {
	Query       string
	SQL         string
	Phase       Phase
	Code        string // SQLSTATE when the backend reports one
	Err         error
	RollbackErr error
}

func (e *QueryExecutionError) Error() string {
	var b strings.Builder
	b.WriteString("query ")
	b.WriteString(string(e.Phase))
	b.WriteString(" failed")
	if e.Query != "" {
		b.WriteString(" [")
		b.WriteString(e.Query)
		b.WriteString("]")
	}
	if e.Code != "" {
		b.WriteString(" (SQLSTATE ")
		b.WriteString(e.Code)
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if e.RollbackErr != nil {
		b.WriteString("; rollback also failed: ")
		b.WriteString(e.RollbackErr.Error())
	}
	return b.String()
}

func (e *QueryExecutionError) Unwrap() error { return e.Err }

func (e *QueryExecutionError) Is(target error) bool { return target == ErrQueryExecution }

// AcquisitionError is returned by pools when no connection could be borrowed.
// Query functions pass it through unwrapped.
type AcquisitionError struct {
	Pool string
	Err  error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquire connection from %s pool: %v", e.Pool, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

func (e *AcquisitionError) Is(target error) bool { return target == ErrAcquisition }

// TransformError wraps a failure returned by a result transform. The
// connection has already been released when it is returned.
type TransformError struct {
	Query string
	Err   error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform [%s]: %v", e.Query, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

func (e *TransformError) Is(target error) bool { return target == ErrTransform }
