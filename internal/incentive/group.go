package incentive

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Group is a set of entries collapsed under one key. Scalar fields come from
// the first entry seen; technician lists are merged without duplicates.
type Group struct {
	Key              string      `json:"key"`
	SaleIDs          []uuid.UUID `json:"sale_ids"`
	EntryIDs         []uuid.UUID `json:"entry_ids"`
	CarType          string      `json:"car_type"`
	Details          string      `json:"details"`
	AmountTotal      int64       `json:"amount_total"`
	IsStandard       bool        `json:"is_standard"`
	AdditionalAmount int64       `json:"additional_amount"`
	Amount           int64       `json:"amount"`
	FlatRate         int64       `json:"flat_rate"`
	Notes            string      `json:"notes"`
	Technicians      []string    `json:"technicians"`
	CreatedAt        time.Time   `json:"created_at"`
}

// Signature identifies visually identical sales. Display only: two different
// sales may share one.
func Signature(e Entry) string {
	return fmt.Sprintf("%s-%s-%d", e.CarType, e.Details, e.AmountTotal)
}

// GroupBySale collapses entries per sale. This grouping feeds every money total.
func GroupBySale(entries []Entry) []Group {
	return groupBy(entries, func(e Entry) string { return e.SaleID.String() })
}

// GroupBySignature collapses entries that look the same on paper.
func GroupBySignature(entries []Entry) []Group {
	return groupBy(entries, Signature)
}

func groupBy(entries []Entry, key func(Entry) string) []Group {
	index := make(map[string]int)
	groups := []Group{}
	for _, e := range entries {
		k := key(e)
		i, ok := index[k]
		if !ok {
			index[k] = len(groups)
			groups = append(groups, Group{
				Key:              k,
				CarType:          e.CarType,
				Details:          e.Details,
				AmountTotal:      e.AmountTotal,
				IsStandard:       e.IsStandard,
				AdditionalAmount: e.AdditionalAmount,
				Amount:           e.Amount,
				FlatRate:         e.FlatRate,
				Notes:            e.Notes,
				CreatedAt:        e.CreatedAt,
			})
			i = len(groups) - 1
		}
		g := &groups[i]
		g.EntryIDs = append(g.EntryIDs, e.ID)
		if !containsID(g.SaleIDs, e.SaleID) {
			g.SaleIDs = append(g.SaleIDs, e.SaleID)
		}
		g.Technicians = SplitNames(append(g.Technicians, e.Technicians...))
	}
	return groups
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
