// Package incentive holds the pure reconciliation logic: amount rules,
// day bucketing, grouping, report totals and the payout distribution.
// Nothing here touches the database; callers pass in a fetched snapshot.
package incentive

import (
	"time"

	"github.com/google/uuid"
)

// Rates are the configured money constants, in minor units.
type Rates struct {
	FlatRate           int64
	PerCarRate         int64
	DefaultSupervisors int
}

func DefaultRates() Rates {
	return Rates{FlatRate: 5000, PerCarRate: 2000, DefaultSupervisors: 3}
}

// Amount is the incentive owed for one sale.
func Amount(flatRate int64, standard bool, additional int64) int64 {
	if standard {
		return flatRate + additional
	}
	return additional
}

// SplitRetroactive derives the standard flag and additional amount for a
// manually entered incentive so that Amount(flat, standard, additional) == total.
func SplitRetroactive(flatRate, total int64) (standard bool, additional int64) {
	if total >= flatRate {
		return true, total - flatRate
	}
	return false, total
}

// Entry is one ledger row joined with its sale.
type Entry struct {
	ID               uuid.UUID
	SaleID           uuid.UUID
	CarType          string
	Details          string
	AmountTotal      int64
	SaleStatus       string
	Technicians      []string
	IsStandard       bool
	AdditionalAmount int64
	Amount           int64
	FlatRate         int64
	Notes            string
	IsPaid           bool
	CreatedAt        time.Time
}

// ExpectedAmount recomputes the amount from the entry's own components.
func (e Entry) ExpectedAmount() int64 {
	return Amount(e.FlatRate, e.IsStandard, e.AdditionalAmount)
}
