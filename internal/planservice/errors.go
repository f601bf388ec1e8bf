// Package planservice orchestrates Plan reads, writes, and state
// transitions: it begins a transaction, fetches prior persisted state,
// runs domain and graph validation, performs the ordered upsert, and
// commits.
package planservice

import (
	"errors"
	"fmt"

	"github.com/fletcher-oaas/fletcher/internal/domain"
)

// ErrCyclical is returned when the union of a submission's dependencies
// and a dataset's prior dependencies would contain a directed cycle.
var ErrCyclical = errors.New("plan dag is cyclical")

// DuplicateError is returned when a plan submission repeats a data
// product id.
type DuplicateError struct {
	DataProductId domain.DataProductId
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate data-product id in submission: %q", e.DataProductId)
}

// DuplicateDependenciesError is returned when a plan submission repeats a
// (parent, child) dependency pair.
type DuplicateDependenciesError struct {
	ParentId domain.DataProductId
	ChildId  domain.DataProductId
}

func (e *DuplicateDependenciesError) Error() string {
	return fmt.Sprintf("duplicate dependency in submission: %q -> %q", e.ParentId, e.ChildId)
}

// SelfDependencyError is returned when a submitted dependency names the
// same product as both parent and child.
type SelfDependencyError struct {
	DataProductId domain.DataProductId
}

func (e *SelfDependencyError) Error() string {
	return fmt.Sprintf("dependency cannot reference itself: %q", e.DataProductId)
}

// MissingError is returned when a read or state transition targets a
// dataset or data product that does not exist.
type MissingError struct {
	DataProductId domain.DataProductId
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("no data product found for: %q", e.DataProductId)
}

// DanglingError is returned when a plan submission's dependency graph
// references a data product id absent from both the submission and the
// dataset's prior state.
type DanglingError struct {
	DataProductId domain.DataProductId
}

func (e *DanglingError) Error() string {
	return fmt.Sprintf("dependency references unknown data product: %q", e.DataProductId)
}

// BadStateError is returned when a state transition is not permitted by
// the state machine.
type BadStateError struct {
	DataProductId domain.DataProductId
	From          domain.State
	To            domain.State
}

func (e *BadStateError) Error() string {
	return fmt.Sprintf("invalid state transition for %q: %s -> %s", e.DataProductId, e.From, e.To)
}

// PauseError is returned when a state transition is attempted on a
// dataset that is paused.
type PauseError struct {
	DatasetId domain.DatasetId
}

func (e *PauseError) Error() string {
	return fmt.Sprintf("dataset %q is paused", e.DatasetId)
}

// RunFieldsRequiredError is returned when a state transition to success
// or failed is missing a field the target state requires.
type RunFieldsRequiredError struct {
	DataProductId domain.DataProductId
	State         domain.State
	Field         string
}

func (e *RunFieldsRequiredError) Error() string {
	return fmt.Sprintf("state %s for %q requires %s", e.State, e.DataProductId, e.Field)
}
