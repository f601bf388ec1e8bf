package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/fletcher-oaas/fletcher/internal/domain"
)

// uuidArg converts an optional run id into a driver argument, avoiding a
// nil-pointer dereference of uuid.UUID's value-receiver Valuer method.
func uuidArg(v *uuid.UUID) any {
	if v == nil {
		return nil
	}

	return v.String()
}

// scanRunID turns a nullable run_id column read into *uuid.UUID.
func scanRunID(s sql.NullString) (*uuid.UUID, error) {
	if !s.Valid {
		return nil, nil
	}

	id, err := uuid.Parse(s.String)
	if err != nil {
		return nil, err
	}

	return &id, nil
}

// DataProductUpsert inserts a DataProduct with state=waiting and null run
// fields, or, on conflict, updates only its definition fields (compute,
// name, version, eager, passthrough, extra). It never overwrites state,
// run_id, link, or passback on update; those move only through
// DataProductStateUpdate.
func DataProductUpsert(
	ctx context.Context,
	tx *sql.Tx,
	datasetID domain.DatasetId,
	param domain.DataProductParam,
	user string,
	modifiedDate time.Time,
) (domain.DataProduct, error) {
	const query = `
		INSERT INTO data_product (
			dataset_id, data_product_id, compute, name, version, eager,
			passthrough, state, run_id, link, passback, extra, modified_by, modified_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULL, NULL, NULL, $9, $10, $11)
		ON CONFLICT (dataset_id, data_product_id) DO UPDATE SET
			compute = $3,
			name = $4,
			version = $5,
			eager = $6,
			passthrough = $7,
			extra = $9,
			modified_by = $10,
			modified_date = $11
		RETURNING
			data_product_id, compute, name, version, eager, passthrough,
			state, run_id, link, passback, extra, modified_by, modified_date`

	return scanDataProductRow(tx.QueryRowContext(ctx, query,
		datasetID, param.Id, param.Compute, param.Name, param.Version, param.Eager,
		jsonArg(param.Passthrough), domain.StateWaiting, jsonArg(param.Extra), user, modifiedDate,
	), datasetID)
}

// DataProductStateUpdate updates the operational fields of an existing
// DataProduct: state, run_id, link, passback. It does not touch the
// product's definition fields. Returns ErrNotFound if the product does
// not exist.
func DataProductStateUpdate(
	ctx context.Context,
	tx *sql.Tx,
	datasetID domain.DatasetId,
	param domain.StateParam,
	user string,
	modifiedDate time.Time,
) (domain.DataProduct, error) {
	const query = `
		UPDATE data_product
		SET state = $3, run_id = $4, link = $5, passback = $6, modified_by = $7, modified_date = $8
		WHERE dataset_id = $1 AND data_product_id = $2
		RETURNING
			data_product_id, compute, name, version, eager, passthrough,
			state, run_id, link, passback, extra, modified_by, modified_date`

	return scanDataProductRow(tx.QueryRowContext(ctx, query,
		datasetID, param.DataProductId, param.State, uuidArg(param.RunId), param.Link,
		jsonArg(param.Passback), user, modifiedDate,
	), datasetID)
}

// DataProductSelect fetches one DataProduct by (datasetID, id), returning
// ErrNotFound if absent.
func DataProductSelect(ctx context.Context, tx *sql.Tx, datasetID domain.DatasetId, id domain.DataProductId) (domain.DataProduct, error) {
	const query = `
		SELECT
			data_product_id, compute, name, version, eager, passthrough,
			state, run_id, link, passback, extra, modified_by, modified_date
		FROM data_product
		WHERE dataset_id = $1 AND data_product_id = $2`

	return scanDataProductRow(tx.QueryRowContext(ctx, query, datasetID, id), datasetID)
}

// DataProductsByDataset returns every DataProduct belonging to datasetID.
func DataProductsByDataset(ctx context.Context, tx *sql.Tx, datasetID domain.DatasetId) ([]domain.DataProduct, error) {
	const query = `
		SELECT
			data_product_id, compute, name, version, eager, passthrough,
			state, run_id, link, passback, extra, modified_by, modified_date
		FROM data_product
		WHERE dataset_id = $1`

	rows, err := tx.QueryContext(ctx, query, datasetID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	products := make([]domain.DataProduct, 0)

	for rows.Next() {
		var (
			dp          domain.DataProduct
			passthrough []byte
			passback    []byte
			extra       []byte
			runID       sql.NullString
			link        sql.NullString
		)

		if err := rows.Scan(
			&dp.Id, &dp.Compute, &dp.Name, &dp.Version, &dp.Eager, &passthrough,
			&dp.State, &runID, &link, &passback, &extra, &dp.ModifiedBy, &dp.ModifiedDate,
		); err != nil {
			return nil, classify(err)
		}

		dp.DatasetId = datasetID
		dp.Passthrough = scanJSON(passthrough)
		dp.Passback = scanJSON(passback)
		dp.Extra = scanJSON(extra)

		if dp.RunId, err = scanRunID(runID); err != nil {
			return nil, err
		}

		if link.Valid {
			dp.Link = &link.String
		}

		products = append(products, dp)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	return products, nil
}

func scanDataProductRow(row *sql.Row, datasetID domain.DatasetId) (domain.DataProduct, error) {
	var (
		dp          domain.DataProduct
		passthrough []byte
		passback    []byte
		extra       []byte
		runID       sql.NullString
		link        sql.NullString
	)

	err := row.Scan(
		&dp.Id, &dp.Compute, &dp.Name, &dp.Version, &dp.Eager, &passthrough,
		&dp.State, &runID, &link, &passback, &extra, &dp.ModifiedBy, &dp.ModifiedDate,
	)
	if err != nil {
		return domain.DataProduct{}, classify(err)
	}

	dp.DatasetId = datasetID
	dp.Passthrough = scanJSON(passthrough)
	dp.Passback = scanJSON(passback)
	dp.Extra = scanJSON(extra)

	if dp.RunId, err = scanRunID(runID); err != nil {
		return domain.DataProduct{}, err
	}

	if link.Valid {
		dp.Link = &link.String
	}

	return dp, nil
}
