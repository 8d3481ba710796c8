package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Konsultn-Engineering/queryfn/database"
	"github.com/Konsultn-Engineering/queryfn/errs"
)

// Returning declares how the cursor of an executed statement is shaped into
// a result.
type Returning int

const (
	// Nothing ignores the cursor; the result is always nil.
	Nothing Returning = iota
	// Scalar yields the first column of the first row, or the default when
	// there is no row or the value is NULL.
	Scalar
	// Row yields the first row as a database.Row, or the default when there
	// is no row.
	Row
	// Rows yields every row as a []database.Row, possibly empty.
	Rows
)

func (r Returning) String() string {
	switch r {
	case Nothing:
		return "nothing"
	case Scalar:
		return "scalar"
	case Row:
		return "row"
	case Rows:
		return "rows"
	default:
		return fmt.Sprintf("Returning(%d)", int(r))
	}
}

// ParseReturning maps a kind name (case-insensitive) to its Returning value.
func ParseReturning(s string) (Returning, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nothing", "none", "":
		return Nothing, nil
	case "scalar":
		return Scalar, nil
	case "row":
		return Row, nil
	case "rows":
		return Rows, nil
	}
	return 0, errs.Configf("returning", "unknown query return type: %q", s)
}

// extractor shapes an open cursor into a result. Errors it raises itself
// are wrapped as shapeError; cursor errors come from the backend.
type extractor func(cur database.Cursor) (any, error)

// shapeError marks a result that cannot be shaped into the declared kind.
type shapeError struct{ err error }

func shapeErr(err error) error { return &shapeError{err: err} }

func (e *shapeError) Error() string { return e.err.Error() }
func (e *shapeError) Unwrap() error { return e.err }

// phaseOf attributes an extraction-path error. Fetch and close failures are
// reported late by the driver but belong to the statement.
func phaseOf(err error) (errs.Phase, error) {
	var se *shapeError
	if errors.As(err, &se) {
		return errs.PhaseExtract, se.err
	}
	return errs.PhaseExecute, err
}

// resolveExtractor binds kind and def once, at build time.
func resolveExtractor(kind Returning, def any) (extractor, error) {
	switch kind {
	case Nothing:
		return func(database.Cursor) (any, error) {
			return nil, nil
		}, nil

	case Scalar:
		return func(cur database.Cursor) (any, error) {
			row, err := cur.FetchOne()
			if err != nil {
				return nil, err
			}
			if row == nil {
				return def, nil
			}
			if row.Len() == 0 {
				return nil, shapeErr(errors.New("scalar result row has no columns"))
			}
			if v := row.Index(0); v != nil {
				return v, nil
			}
			return def, nil
		}, nil

	case Row:
		return func(cur database.Cursor) (any, error) {
			row, err := cur.FetchOne()
			if err != nil {
				return nil, err
			}
			if row == nil {
				return def, nil
			}
			return *row, nil
		}, nil

	case Rows:
		return func(cur database.Cursor) (any, error) {
			return cur.FetchAll()
		}, nil
	}

	return nil, errs.Configf("returning", "unknown query return type: %s", kind)
}
