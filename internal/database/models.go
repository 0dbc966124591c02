package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type IncentiveTechnician struct {
	IncentiveID    uuid.UUID   `json:"incentive_id"`
	Position       int32       `json:"position"`
	TechnicianName string      `json:"technician_name"`
	TechnicianID   pgtype.UUID `json:"technician_id"`
}

type SaleOperation struct {
	ID          uuid.UUID `json:"id"`
	CarType     string    `json:"car_type"`
	Details     string    `json:"details"`
	AmountTotal int64     `json:"amount_total"`
	Salesperson string    `json:"salesperson"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Technician struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Role      pgtype.Text `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

type TechnicianIncentive struct {
	ID               uuid.UUID          `json:"id"`
	SaleID           uuid.UUID          `json:"sale_id"`
	IsStandard       bool               `json:"is_standard"`
	AdditionalAmount int64              `json:"additional_amount"`
	Amount           int64              `json:"amount"`
	FlatRate         int64              `json:"flat_rate"`
	Notes            pgtype.Text        `json:"notes"`
	IsPaid           bool               `json:"is_paid"`
	PaidAt           pgtype.Timestamptz `json:"paid_at"`
	CreatedAt        time.Time          `json:"created_at"`
}

// IncentiveLedgerRow is an incentive joined with its sale and ordered technician names.
type IncentiveLedgerRow struct {
	ID               uuid.UUID          `json:"id"`
	SaleID           uuid.UUID          `json:"sale_id"`
	IsStandard       bool               `json:"is_standard"`
	AdditionalAmount int64              `json:"additional_amount"`
	Amount           int64              `json:"amount"`
	FlatRate         int64              `json:"flat_rate"`
	Notes            pgtype.Text        `json:"notes"`
	IsPaid           bool               `json:"is_paid"`
	PaidAt           pgtype.Timestamptz `json:"paid_at"`
	CreatedAt        time.Time          `json:"created_at"`
	CarType          string             `json:"car_type"`
	Details          string             `json:"details"`
	AmountTotal      int64              `json:"amount_total"`
	SaleStatus       string             `json:"sale_status"`
	TechnicianNames  []string           `json:"technician_names"`
}
