package planservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fletcher-oaas/fletcher/internal/domain"
	"github.com/fletcher-oaas/fletcher/internal/graphkernel"
	"github.com/fletcher-oaas/fletcher/internal/storage"
)

// Service orchestrates Plan reads, writes, and state transitions against
// a database connection pool.
type Service struct {
	conn *storage.Connection
}

// New returns a Service backed by conn.
func New(conn *storage.Connection) *Service {
	return &Service{conn: conn}
}

// PlanDAGAdd validates and persists a Plan submission for user.
//
// It begins a transaction, reads the dataset's prior persisted plan (if
// any), runs domain validation (duplicate products/dependencies,
// self-dependencies), referential validation and an acyclicity check
// over the union of the submission and the prior plan, then performs the
// upsert and commits. Any failure after the transaction begins rolls it
// back.
func (s *Service) PlanDAGAdd(ctx context.Context, param domain.PlanParam, user string) (domain.Plan, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return domain.Plan{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	prior, err := storage.PlanSelect(ctx, tx, param.Dataset.Id)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return domain.Plan{}, fmt.Errorf("read prior plan: %w", err)
		}

		prior = domain.Plan{}
	}

	if err := validatePlanParam(param, prior); err != nil {
		return domain.Plan{}, err
	}

	modifiedDate := domain.Timestamp(time.Now())

	plan, err := storage.PlanUpsert(ctx, tx, param, user, modifiedDate)
	if err != nil {
		return domain.Plan{}, fmt.Errorf("upsert plan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Plan{}, fmt.Errorf("commit: %w", err)
	}

	return plan, nil
}

// validatePlanParam runs the fail-fast domain checks and the acyclicity
// check over the union of param and the dataset's prior plan.
func validatePlanParam(param domain.PlanParam, prior domain.Plan) error {
	if id, found := param.DuplicateProduct(); found {
		return &DuplicateError{DataProductId: id}
	}

	if edge, found := param.DuplicateDependency(); found {
		return &DuplicateDependenciesError{ParentId: edge.Parent, ChildId: edge.Child}
	}

	if id, found := param.SelfDependency(); found {
		return &SelfDependencyError{DataProductId: id}
	}

	nodeIDs := append(param.DataProductIDs(), prior.DataProductIDs()...)

	known := make(map[domain.DataProductId]struct{}, len(nodeIDs))
	for _, id := range nodeIDs {
		known[id] = struct{}{}
	}

	for _, id := range param.ParentIDs() {
		if _, ok := known[id]; !ok {
			return &DanglingError{DataProductId: id}
		}
	}

	for _, id := range param.ChildIDs() {
		if _, ok := known[id]; !ok {
			return &DanglingError{DataProductId: id}
		}
	}

	edges := make([]graphkernel.Edge[domain.DataProductId, int], 0)
	for _, e := range append(param.DependencyEdges(), prior.DependencyEdges()...) {
		edges = append(edges, graphkernel.Edge[domain.DataProductId, int]{Parent: e.Parent, Child: e.Child, Weight: 1})
	}

	if _, err := graphkernel.BuildDeduped(nodeIDs, edges); err != nil {
		if errors.Is(err, graphkernel.ErrCyclical) {
			return ErrCyclical
		}

		return fmt.Errorf("build dependency graph: %w", err)
	}

	return nil
}

// PlanDAGRead returns the persisted Plan for a dataset. It reads inside a
// transaction that it always rolls back, since a read has no side
// effects to commit.
func (s *Service) PlanDAGRead(ctx context.Context, id domain.DatasetId) (domain.Plan, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return domain.Plan{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	plan, err := storage.PlanSelect(ctx, tx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Plan{}, &MissingError{DataProductId: id.String()}
		}

		return domain.Plan{}, fmt.Errorf("read plan: %w", err)
	}

	return plan, nil
}

// StateChange validates and applies a state transition for one data
// product of a dataset, on behalf of user.
func (s *Service) StateChange(ctx context.Context, datasetID domain.DatasetId, param domain.StateParam, user string) (domain.DataProduct, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return domain.DataProduct{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	dataset, err := storage.DatasetSelect(ctx, tx, datasetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.DataProduct{}, &MissingError{DataProductId: datasetID.String()}
		}

		return domain.DataProduct{}, fmt.Errorf("read dataset: %w", err)
	}

	current, err := storage.DataProductSelect(ctx, tx, datasetID, param.DataProductId)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.DataProduct{}, &MissingError{DataProductId: param.DataProductId}
		}

		return domain.DataProduct{}, fmt.Errorf("read data product: %w", err)
	}

	if dataset.Paused && param.State != domain.StateDisabled {
		return domain.DataProduct{}, &PauseError{DatasetId: datasetID}
	}

	if !current.State.CanTransition(param.State) {
		return domain.DataProduct{}, &BadStateError{DataProductId: param.DataProductId, From: current.State, To: param.State}
	}

	if param.RequiresRunId() && param.RunId == nil {
		return domain.DataProduct{}, &RunFieldsRequiredError{DataProductId: param.DataProductId, State: param.State, Field: "run_id"}
	}

	if param.RequiresLink() && param.Link == nil {
		return domain.DataProduct{}, &RunFieldsRequiredError{DataProductId: param.DataProductId, State: param.State, Field: "link"}
	}

	param.DatasetId = datasetID
	modifiedDate := domain.Timestamp(time.Now())

	updated, err := storage.DataProductStateUpdate(ctx, tx, datasetID, param, user, modifiedDate)
	if err != nil {
		return domain.DataProduct{}, fmt.Errorf("update state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.DataProduct{}, fmt.Errorf("commit: %w", err)
	}

	return updated, nil
}
