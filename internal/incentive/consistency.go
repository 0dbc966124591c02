package incentive

import (
	"fmt"

	"github.com/google/uuid"
)

type IssueKind string

const (
	IssueReviewedWithoutIncentive IssueKind = "reviewed_without_incentive"
	IssueSaleNotReviewed          IssueKind = "incentive_sale_not_reviewed"
	IssueAmountMismatch           IssueKind = "amount_mismatch"
	IssueNoTechnicians            IssueKind = "no_technicians"
)

// Issue is a ledger inconsistency. Issues are reported, never repaired.
type Issue struct {
	Kind        IssueKind  `json:"kind"`
	SaleID      uuid.UUID  `json:"sale_id"`
	IncentiveID *uuid.UUID `json:"incentive_id,omitempty"`
	Message     string     `json:"message"`
}

// CheckEntries validates each row against its own sale and the amount rule.
func CheckEntries(entries []Entry) []Issue {
	issues := []Issue{}
	for _, e := range entries {
		id := e.ID
		if want := e.ExpectedAmount(); e.Amount != want {
			issues = append(issues, Issue{
				Kind:        IssueAmountMismatch,
				SaleID:      e.SaleID,
				IncentiveID: &id,
				Message:     fmt.Sprintf("amount %d, expected %d", e.Amount, want),
			})
		}
		if e.SaleStatus != "" && e.SaleStatus != "reviewed" {
			issues = append(issues, Issue{
				Kind:        IssueSaleNotReviewed,
				SaleID:      e.SaleID,
				IncentiveID: &id,
				Message:     fmt.Sprintf("sale status is %s", e.SaleStatus),
			})
		}
		if len(SplitNames(e.Technicians)) == 0 {
			issues = append(issues, Issue{
				Kind:        IssueNoTechnicians,
				SaleID:      e.SaleID,
				IncentiveID: &id,
				Message:     "incentive has no technicians",
			})
		}
	}
	return issues
}

// ReviewedWithoutIncentive reports sales that were marked reviewed but never
// received a ledger row.
func ReviewedWithoutIncentive(saleIDs []uuid.UUID) []Issue {
	issues := make([]Issue, 0, len(saleIDs))
	for _, id := range saleIDs {
		issues = append(issues, Issue{
			Kind:    IssueReviewedWithoutIncentive,
			SaleID:  id,
			Message: "sale is reviewed but has no incentive",
		})
	}
	return issues
}
