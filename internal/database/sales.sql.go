package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const saleOperationColumns = `id, car_type, details, amount_total, salesperson, status, created_at, updated_at`

func scanSaleOperation(row interface{ Scan(...interface{}) error }) (SaleOperation, error) {
	var i SaleOperation
	err := row.Scan(
		&i.ID,
		&i.CarType,
		&i.Details,
		&i.AmountTotal,
		&i.Salesperson,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createSaleOperation = `-- name: CreateSaleOperation :one
INSERT INTO sale_operations (car_type, details, amount_total, salesperson, status, created_at)
VALUES ($1, $2, $3, $4, $5, COALESCE($6::timestamptz, now()))
RETURNING ` + saleOperationColumns

type CreateSaleOperationParams struct {
	CarType     string             `json:"car_type"`
	Details     string             `json:"details"`
	AmountTotal int64              `json:"amount_total"`
	Salesperson string             `json:"salesperson"`
	Status      string             `json:"status"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateSaleOperation(ctx context.Context, arg CreateSaleOperationParams) (SaleOperation, error) {
	row := q.db.QueryRow(ctx, createSaleOperation,
		arg.CarType,
		arg.Details,
		arg.AmountTotal,
		arg.Salesperson,
		arg.Status,
		arg.CreatedAt,
	)
	return scanSaleOperation(row)
}

const getSaleOperation = `-- name: GetSaleOperation :one
SELECT ` + saleOperationColumns + `
FROM sale_operations
WHERE id = $1`

func (q *Queries) GetSaleOperation(ctx context.Context, id uuid.UUID) (SaleOperation, error) {
	row := q.db.QueryRow(ctx, getSaleOperation, id)
	return scanSaleOperation(row)
}

const getSaleOperationForUpdate = `-- name: GetSaleOperationForUpdate :one
SELECT ` + saleOperationColumns + `
FROM sale_operations
WHERE id = $1
FOR UPDATE`

func (q *Queries) GetSaleOperationForUpdate(ctx context.Context, id uuid.UUID) (SaleOperation, error) {
	row := q.db.QueryRow(ctx, getSaleOperationForUpdate, id)
	return scanSaleOperation(row)
}

const listSaleOperationsByStatus = `-- name: ListSaleOperationsByStatus :many
SELECT ` + saleOperationColumns + `
FROM sale_operations
WHERE status = $1
ORDER BY created_at DESC`

func (q *Queries) ListSaleOperationsByStatus(ctx context.Context, status string) ([]SaleOperation, error) {
	rows, err := q.db.Query(ctx, listSaleOperationsByStatus, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []SaleOperation{}
	for rows.Next() {
		i, err := scanSaleOperation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateSaleOperationStatus = `-- name: UpdateSaleOperationStatus :one
UPDATE sale_operations
SET status = $3, updated_at = now()
WHERE id = $1 AND status = $2
RETURNING ` + saleOperationColumns

type UpdateSaleOperationStatusParams struct {
	ID         uuid.UUID `json:"id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
}

func (q *Queries) UpdateSaleOperationStatus(ctx context.Context, arg UpdateSaleOperationStatusParams) (SaleOperation, error) {
	row := q.db.QueryRow(ctx, updateSaleOperationStatus, arg.ID, arg.FromStatus, arg.ToStatus)
	return scanSaleOperation(row)
}

const updateSaleOperationDetails = `-- name: UpdateSaleOperationDetails :one
UPDATE sale_operations
SET car_type = $2, details = $3, amount_total = $4, updated_at = now()
WHERE id = $1 AND status IN ('pending', 'confirmed')
RETURNING ` + saleOperationColumns

type UpdateSaleOperationDetailsParams struct {
	ID          uuid.UUID `json:"id"`
	CarType     string    `json:"car_type"`
	Details     string    `json:"details"`
	AmountTotal int64     `json:"amount_total"`
}

func (q *Queries) UpdateSaleOperationDetails(ctx context.Context, arg UpdateSaleOperationDetailsParams) (SaleOperation, error) {
	row := q.db.QueryRow(ctx, updateSaleOperationDetails,
		arg.ID,
		arg.CarType,
		arg.Details,
		arg.AmountTotal,
	)
	return scanSaleOperation(row)
}

const deleteUnpaidSaleOperation = `-- name: DeleteUnpaidSaleOperation :execrows
DELETE FROM sale_operations s
WHERE s.id = $1
  AND NOT EXISTS (
    SELECT 1 FROM technician_incentives ti
    WHERE ti.sale_id = s.id AND ti.is_paid
  )`

// DeleteUnpaidSaleOperation removes a sale and, by cascade, its incentive.
// Sales whose incentive has been paid are left in place.
func (q *Queries) DeleteUnpaidSaleOperation(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deleteUnpaidSaleOperation, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listReviewedSalesWithoutIncentive = `-- name: ListReviewedSalesWithoutIncentive :many
SELECT ` + saleOperationColumns + `
FROM sale_operations s
WHERE s.status = 'reviewed'
  AND NOT EXISTS (SELECT 1 FROM technician_incentives ti WHERE ti.sale_id = s.id)
ORDER BY s.created_at DESC`

func (q *Queries) ListReviewedSalesWithoutIncentive(ctx context.Context) ([]SaleOperation, error) {
	rows, err := q.db.Query(ctx, listReviewedSalesWithoutIncentive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []SaleOperation{}
	for rows.Next() {
		i, err := scanSaleOperation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
