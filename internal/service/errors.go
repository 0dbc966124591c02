package service

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Validation errors.
var (
	ErrCarTypeRequired  = errors.New("car_type is required")
	ErrInvalidTotal     = errors.New("amount_total must be a positive whole number")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidSaleID    = errors.New("invalid sale_id")
	ErrInvalidStaffID   = errors.New("invalid staff id")
	ErrEmptyTransfer    = errors.New("at least one sale is required")
	ErrDuplicateSale    = errors.New("sale listed more than once")
	ErrNoTechnicians    = errors.New("at least one technician is required")
	ErrInvalidExtra     = errors.New("extra must be a positive whole number")
	ErrInvalidIncentive = errors.New("incentive must be a positive whole number")
	ErrDayRequired      = errors.New("date is required")
)

// Lookup errors.
var (
	ErrSaleNotFound      = errors.New("sale not found")
	ErrIncentiveNotFound = errors.New("incentive not found")
	ErrNoOpenDays        = errors.New("no unpaid incentives")
)

// State conflicts.
var (
	ErrInvalidTransition = errors.New("sale is not in a state that allows this action")
	ErrAlreadyAssigned   = errors.New("sale already has an incentive")
	ErrAlreadyPaid       = errors.New("incentive has already been paid")
	ErrNotStandard       = errors.New("extra can only be added to a flat-rate incentive")
	ErrBusy              = errors.New("another operation is in progress, try again")
)

// isSaleIncentiveConflict reports a unique violation on technician_incentives.sale_id.
func isSaleIncentiveConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "technician_incentives_sale_id_key"
	}
	return false
}
