package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/fletcher-oaas/fletcher/internal/domain"
)

// PlanSelect assembles the Plan for a dataset: the dataset row plus every
// data product and dependency it owns. It yields ErrNotFound if the
// dataset itself does not exist; a dataset with zero products or
// dependencies is not an error.
func PlanSelect(ctx context.Context, tx *sql.Tx, id domain.DatasetId) (domain.Plan, error) {
	dataset, err := DatasetSelect(ctx, tx, id)
	if err != nil {
		return domain.Plan{}, err
	}

	products, err := DataProductsByDataset(ctx, tx, id)
	if err != nil {
		return domain.Plan{}, err
	}

	deps, err := DependenciesByDataset(ctx, tx, id)
	if err != nil {
		return domain.Plan{}, err
	}

	return domain.Plan{Dataset: dataset, DataProducts: products, Dependencies: deps}, nil
}

// PlanUpsert writes a full Plan submission: the dataset, every data
// product, then every dependency, in that order so dependency foreign
// keys are always satisfied by rows written earlier in the same
// transaction. Every row written in this call shares modifiedDate, so
// the submission reads back as one batch-coherent audit event.
//
// The returned Plan reflects the dataset's complete persisted state, not
// just the rows named in this submission: a caller may incrementally add
// one new product to a dataset that already has ten, and the response
// carries all eleven.
func PlanUpsert(
	ctx context.Context,
	tx *sql.Tx,
	param domain.PlanParam,
	user string,
	modifiedDate time.Time,
) (domain.Plan, error) {
	dataset, err := DatasetUpsert(ctx, tx, param.Dataset, user, modifiedDate)
	if err != nil {
		return domain.Plan{}, err
	}

	for _, dpParam := range param.DataProducts {
		if _, err := DataProductUpsert(ctx, tx, dataset.Id, dpParam, user, modifiedDate); err != nil {
			return domain.Plan{}, err
		}
	}

	for _, depParam := range param.Dependencies {
		if _, err := DependencyUpsert(ctx, tx, dataset.Id, depParam, user, modifiedDate); err != nil {
			return domain.Plan{}, err
		}
	}

	return PlanSelect(ctx, tx, dataset.Id)
}
