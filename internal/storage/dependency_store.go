package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/fletcher-oaas/fletcher/internal/domain"
)

// DependencyUpsert inserts or updates a Dependency edge by
// (dataset_id, parent_id, child_id). The foreign keys to data_product and
// the parent<>child check constraint are enforced by the schema; a
// violation surfaces here as a ConstraintError.
func DependencyUpsert(
	ctx context.Context,
	tx *sql.Tx,
	datasetID domain.DatasetId,
	param domain.DependencyParam,
	user string,
	modifiedDate time.Time,
) (domain.Dependency, error) {
	const query = `
		INSERT INTO dependency (dataset_id, parent_id, child_id, extra, modified_by, modified_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (dataset_id, parent_id, child_id) DO UPDATE SET
			extra = $4,
			modified_by = $5,
			modified_date = $6
		RETURNING parent_id, child_id, extra, modified_by, modified_date`

	var (
		dep   domain.Dependency
		extra []byte
	)

	err := tx.QueryRowContext(ctx, query,
		datasetID, param.ParentId, param.ChildId, jsonArg(param.Extra), user, modifiedDate,
	).Scan(&dep.ParentId, &dep.ChildId, &extra, &dep.ModifiedBy, &dep.ModifiedDate)
	if err != nil {
		return domain.Dependency{}, classify(err)
	}

	dep.DatasetId = datasetID
	dep.Extra = scanJSON(extra)

	return dep, nil
}

// DependenciesByDataset returns every Dependency belonging to datasetID.
func DependenciesByDataset(ctx context.Context, tx *sql.Tx, datasetID domain.DatasetId) ([]domain.Dependency, error) {
	const query = `
		SELECT parent_id, child_id, extra, modified_by, modified_date
		FROM dependency
		WHERE dataset_id = $1`

	rows, err := tx.QueryContext(ctx, query, datasetID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	deps := make([]domain.Dependency, 0)

	for rows.Next() {
		var (
			dep   domain.Dependency
			extra []byte
		)

		if err := rows.Scan(&dep.ParentId, &dep.ChildId, &extra, &dep.ModifiedBy, &dep.ModifiedDate); err != nil {
			return nil, classify(err)
		}

		dep.DatasetId = datasetID
		dep.Extra = scanJSON(extra)

		deps = append(deps, dep)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	return deps, nil
}
