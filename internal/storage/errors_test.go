package storage

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassifyNil(t *testing.T) {
	assert.Nil(t, classify(nil))
}

func TestClassifyRowNotFound(t *testing.T) {
	err := classify(sql.ErrNoRows)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestClassifyConstraintViolation(t *testing.T) {
	pqErr := &pq.Error{Constraint: "dependency_parent_id_fkey"}

	err := classify(pqErr)

	var constraintErr *ConstraintError
	a := assert.New(t)
	a.ErrorAs(err, &constraintErr)
	a.Equal("dependency_parent_id_fkey", constraintErr.Constraint)
}

func TestClassifyOtherPassesThrough(t *testing.T) {
	original := errors.New("connection reset")

	err := classify(original)

	assert.Equal(t, original, err)
}
