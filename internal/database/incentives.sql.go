package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const technicianIncentiveColumns = `id, sale_id, is_standard, additional_amount, amount, flat_rate, notes, is_paid, paid_at, created_at`

func scanTechnicianIncentive(row interface{ Scan(...interface{}) error }) (TechnicianIncentive, error) {
	var i TechnicianIncentive
	err := row.Scan(
		&i.ID,
		&i.SaleID,
		&i.IsStandard,
		&i.AdditionalAmount,
		&i.Amount,
		&i.FlatRate,
		&i.Notes,
		&i.IsPaid,
		&i.PaidAt,
		&i.CreatedAt,
	)
	return i, err
}

const ledgerSelect = `SELECT ti.id, ti.sale_id, ti.is_standard, ti.additional_amount, ti.amount, ti.flat_rate,
       ti.notes, ti.is_paid, ti.paid_at, ti.created_at,
       so.car_type, so.details, so.amount_total, so.status,
       COALESCE(
         (SELECT array_agg(it.technician_name ORDER BY it.position)
          FROM incentive_technicians it
          WHERE it.incentive_id = ti.id),
         '{}'
       )::text[] AS technician_names
FROM technician_incentives ti
JOIN sale_operations so ON so.id = ti.sale_id`

func (q *Queries) queryLedger(ctx context.Context, sql string, args ...interface{}) ([]IncentiveLedgerRow, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []IncentiveLedgerRow{}
	for rows.Next() {
		var i IncentiveLedgerRow
		if err := rows.Scan(
			&i.ID,
			&i.SaleID,
			&i.IsStandard,
			&i.AdditionalAmount,
			&i.Amount,
			&i.FlatRate,
			&i.Notes,
			&i.IsPaid,
			&i.PaidAt,
			&i.CreatedAt,
			&i.CarType,
			&i.Details,
			&i.AmountTotal,
			&i.SaleStatus,
			&i.TechnicianNames,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createTechnicianIncentive = `-- name: CreateTechnicianIncentive :one
INSERT INTO technician_incentives (sale_id, is_standard, additional_amount, amount, flat_rate, notes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + technicianIncentiveColumns

type CreateTechnicianIncentiveParams struct {
	SaleID           uuid.UUID   `json:"sale_id"`
	IsStandard       bool        `json:"is_standard"`
	AdditionalAmount int64       `json:"additional_amount"`
	Amount           int64       `json:"amount"`
	FlatRate         int64       `json:"flat_rate"`
	Notes            pgtype.Text `json:"notes"`
	CreatedAt        time.Time   `json:"created_at"`
}

func (q *Queries) CreateTechnicianIncentive(ctx context.Context, arg CreateTechnicianIncentiveParams) (TechnicianIncentive, error) {
	row := q.db.QueryRow(ctx, createTechnicianIncentive,
		arg.SaleID,
		arg.IsStandard,
		arg.AdditionalAmount,
		arg.Amount,
		arg.FlatRate,
		arg.Notes,
		arg.CreatedAt,
	)
	return scanTechnicianIncentive(row)
}

const createIncentiveTechnician = `-- name: CreateIncentiveTechnician :exec
INSERT INTO incentive_technicians (incentive_id, position, technician_name, technician_id)
VALUES ($1, $2, $3, $4)`

type CreateIncentiveTechnicianParams struct {
	IncentiveID    uuid.UUID   `json:"incentive_id"`
	Position       int32       `json:"position"`
	TechnicianName string      `json:"technician_name"`
	TechnicianID   pgtype.UUID `json:"technician_id"`
}

func (q *Queries) CreateIncentiveTechnician(ctx context.Context, arg CreateIncentiveTechnicianParams) error {
	_, err := q.db.Exec(ctx, createIncentiveTechnician,
		arg.IncentiveID,
		arg.Position,
		arg.TechnicianName,
		arg.TechnicianID,
	)
	return err
}

const getTechnicianIncentive = `-- name: GetTechnicianIncentive :one
SELECT ` + technicianIncentiveColumns + `
FROM technician_incentives
WHERE id = $1`

func (q *Queries) GetTechnicianIncentive(ctx context.Context, id uuid.UUID) (TechnicianIncentive, error) {
	row := q.db.QueryRow(ctx, getTechnicianIncentive, id)
	return scanTechnicianIncentive(row)
}

const deleteUnpaidTechnicianIncentive = `-- name: DeleteUnpaidTechnicianIncentive :one
DELETE FROM technician_incentives
WHERE id = $1 AND is_paid = false
RETURNING sale_id`

func (q *Queries) DeleteUnpaidTechnicianIncentive(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteUnpaidTechnicianIncentive, id)
	var saleID uuid.UUID
	err := row.Scan(&saleID)
	return saleID, err
}

const updateIncentiveExtra = `-- name: UpdateIncentiveExtra :one
UPDATE technician_incentives
SET additional_amount = $2, amount = flat_rate + $2
WHERE id = $1 AND is_paid = false AND is_standard
RETURNING ` + technicianIncentiveColumns

type UpdateIncentiveExtraParams struct {
	ID               uuid.UUID `json:"id"`
	AdditionalAmount int64     `json:"additional_amount"`
}

func (q *Queries) UpdateIncentiveExtra(ctx context.Context, arg UpdateIncentiveExtraParams) (TechnicianIncentive, error) {
	row := q.db.QueryRow(ctx, updateIncentiveExtra, arg.ID, arg.AdditionalAmount)
	return scanTechnicianIncentive(row)
}

const listUnpaidIncentives = `-- name: ListUnpaidIncentives :many
` + ledgerSelect + `
WHERE ti.is_paid = false
  AND ($1::timestamptz IS NULL OR ti.created_at >= $1::timestamptz)
  AND ($2::timestamptz IS NULL OR ti.created_at < $2::timestamptz)
ORDER BY ti.created_at DESC, ti.id`

type ListUnpaidIncentivesParams struct {
	From pgtype.Timestamptz `json:"from"`
	To   pgtype.Timestamptz `json:"to"`
}

func (q *Queries) ListUnpaidIncentives(ctx context.Context, arg ListUnpaidIncentivesParams) ([]IncentiveLedgerRow, error) {
	return q.queryLedger(ctx, listUnpaidIncentives, arg.From, arg.To)
}

const listIncentivesBySale = `-- name: ListIncentivesBySale :many
` + ledgerSelect + `
WHERE ti.sale_id = $1
ORDER BY ti.created_at`

func (q *Queries) ListIncentivesBySale(ctx context.Context, saleID uuid.UUID) ([]IncentiveLedgerRow, error) {
	return q.queryLedger(ctx, listIncentivesBySale, saleID)
}

const listIncentivesWithUnreviewedSale = `-- name: ListIncentivesWithUnreviewedSale :many
` + ledgerSelect + `
WHERE so.status <> 'reviewed'
ORDER BY ti.created_at DESC`

func (q *Queries) ListIncentivesWithUnreviewedSale(ctx context.Context) ([]IncentiveLedgerRow, error) {
	return q.queryLedger(ctx, listIncentivesWithUnreviewedSale)
}

const markIncentivesPaid = `-- name: MarkIncentivesPaid :execrows
UPDATE technician_incentives
SET is_paid = true, paid_at = now()
WHERE is_paid = false
  AND created_at >= $1
  AND created_at < $2`

type MarkIncentivesPaidParams struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (q *Queries) MarkIncentivesPaid(ctx context.Context, arg MarkIncentivesPaidParams) (int64, error) {
	result, err := q.db.Exec(ctx, markIncentivesPaid, arg.From, arg.To)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
