package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrNotFound is returned by a select primitive when no row matches.
var ErrNotFound = errors.New("storage: not found")

// ConstraintError is returned when a write violates a foreign key, unique,
// check, or not-null constraint. Constraint names the violated constraint
// as reported by the database, when available.
type ConstraintError struct {
	Constraint string
	cause      error
}

func (e *ConstraintError) Error() string {
	if e.Constraint == "" {
		return "storage: constraint violation"
	}

	return fmt.Sprintf("storage: constraint violation: %s", e.Constraint)
}

func (e *ConstraintError) Unwrap() error {
	return e.cause
}

// classify maps a raw database/sql or lib/pq error into the closed
// NotFound/Constraint/Other triad the Plan Service switches on. This
// mirrors the sqlx_to_poem_error pattern of the system this package was
// translated from: RowNotFound becomes NotFound, any database error that
// names a violated constraint becomes Constraint, everything else is
// passed through as Other so it surfaces as a 500.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Constraint != "" {
		return &ConstraintError{Constraint: pqErr.Constraint, cause: err}
	}

	return err
}
