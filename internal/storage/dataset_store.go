package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/fletcher-oaas/fletcher/internal/domain"
)

// DatasetUpsert inserts or updates a Dataset by id, setting paused, extra,
// modified_by, and modified_date. A first submission creates the row; a
// later one overwrites every field here.
func DatasetUpsert(
	ctx context.Context,
	tx *sql.Tx,
	param domain.DatasetParam,
	user string,
	modifiedDate time.Time,
) (domain.Dataset, error) {
	const query = `
		INSERT INTO dataset (dataset_id, paused, extra, modified_by, modified_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (dataset_id) DO UPDATE SET
			paused = $2,
			extra = $3,
			modified_by = $4,
			modified_date = $5
		RETURNING dataset_id, paused, extra, modified_by, modified_date`

	var (
		d     domain.Dataset
		extra []byte
	)

	err := tx.QueryRowContext(ctx, query,
		param.Id, param.Paused, jsonArg(param.Extra), user, modifiedDate,
	).Scan(&d.Id, &d.Paused, &extra, &d.ModifiedBy, &d.ModifiedDate)
	if err != nil {
		return domain.Dataset{}, classify(err)
	}

	d.Extra = scanJSON(extra)

	return d, nil
}

// DatasetSelect fetches one Dataset by id, returning ErrNotFound if absent.
func DatasetSelect(ctx context.Context, tx *sql.Tx, id domain.DatasetId) (domain.Dataset, error) {
	const query = `
		SELECT dataset_id, paused, extra, modified_by, modified_date
		FROM dataset
		WHERE dataset_id = $1`

	var (
		d     domain.Dataset
		extra []byte
	)

	err := tx.QueryRowContext(ctx, query, id).
		Scan(&d.Id, &d.Paused, &extra, &d.ModifiedBy, &d.ModifiedDate)
	if err != nil {
		return domain.Dataset{}, classify(err)
	}

	d.Extra = scanJSON(extra)

	return d, nil
}
