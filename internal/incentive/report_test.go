package incentive

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func TestGroupBySale_MergesTechniciansWithoutDuplicates(t *testing.T) {
	sale := uuid.New()
	entries := []Entry{
		entry(sale, "Sedan", "X", 6000, true, 1000, "Ali & Hassan"),
		entry(sale, "Sedan", "X", 6000, true, 1000, "Hassan", "Omar"),
	}

	groups := GroupBySale(entries)
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(groups))
	}
	want := []string{"Ali", "Hassan", "Omar"}
	if !reflect.DeepEqual(groups[0].Technicians, want) {
		t.Errorf("technicians = %v, want %v", groups[0].Technicians, want)
	}
	if len(groups[0].EntryIDs) != 2 {
		t.Errorf("entry ids = %d, want 2", len(groups[0].EntryIDs))
	}

	groups = GroupBySale([]Entry{entry(sale, "Sedan", "X", 6000, true, 0, "Ali", "ali ")})
	if !reflect.DeepEqual(groups[0].Technicians, []string{"Ali"}) {
		t.Errorf("case variants: technicians = %v, want [Ali]", groups[0].Technicians)
	}
}

func TestComputeTotals_SedanX(t *testing.T) {
	e := entry(uuid.New(), "Sedan", "X", 6000, true, 1000, "Ali & Hassan")
	if e.Amount != 6000 {
		t.Fatalf("amount = %d, want 6000", e.Amount)
	}

	got := ComputeTotals([]Entry{e})
	want := Totals{StandardCount: 1, StandardTotal: 5000, AdditionalCount: 1, AdditionalTotal: 1000, GrandTotal: 6000}
	if got != want {
		t.Errorf("totals = %+v, want %+v", got, want)
	}
}

func TestComputeTotals_CountsEachSaleOnce(t *testing.T) {
	sale := uuid.New()
	entries := []Entry{
		entry(sale, "Sedan", "X", 6000, true, 1000, "Ali"),
		entry(sale, "Sedan", "X", 6000, true, 1000, "Hassan"),
		entry(uuid.New(), "SUV", "", 2000, false, 2000, "Omar"),
	}
	got := ComputeTotals(entries)
	if got.StandardTotal != 5000 || got.AdditionalTotal != 3000 || got.GrandTotal != 8000 {
		t.Errorf("totals = %+v", got)
	}
	if got.GrandTotal != got.StandardTotal+got.AdditionalTotal {
		t.Error("grand total is not the sum of its sections")
	}
}

func TestBuildReport_SignatureViewKeepsMoneyPerSale(t *testing.T) {
	// Two distinct sales that look identical on paper.
	a := entry(uuid.New(), "Sedan", "tint", 6000, true, 0, "Ali")
	b := entry(uuid.New(), "Sedan", "tint", 6000, true, 0, "Hassan")

	bySig := BuildReport("2024-03-01", ViewSignature, []Entry{a, b})
	if len(bySig.Standard) != 1 {
		t.Fatalf("signature rows = %d, want 1", len(bySig.Standard))
	}
	if len(bySig.Standard[0].SaleIDs) != 2 {
		t.Errorf("signature sale ids = %d, want 2", len(bySig.Standard[0].SaleIDs))
	}
	if bySig.Totals.StandardTotal != 10000 {
		t.Errorf("standard total = %d, want 10000", bySig.Totals.StandardTotal)
	}

	bySale := BuildReport("2024-03-01", ViewSale, []Entry{a, b})
	if len(bySale.Standard) != 2 {
		t.Errorf("sale rows = %d, want 2", len(bySale.Standard))
	}
	if bySale.Totals != bySig.Totals {
		t.Errorf("totals differ between views: %+v vs %+v", bySale.Totals, bySig.Totals)
	}
}

func TestBuildReport_Sections(t *testing.T) {
	flat := entry(uuid.New(), "Sedan", "", 5000, true, 0, "Ali")
	both := entry(uuid.New(), "SUV", "", 9000, true, 2000, "Sara")
	extraOnly := entry(uuid.New(), "Van", "", 1000, false, 1000, "Omar")

	r := BuildReport("2024-03-01", ViewSale, []Entry{flat, both, extraOnly})
	if len(r.Standard) != 2 {
		t.Errorf("standard rows = %d, want 2", len(r.Standard))
	}
	if len(r.Additional) != 2 {
		t.Errorf("additional rows = %d, want 2", len(r.Additional))
	}
	if len(r.Warnings) != 0 {
		t.Errorf("unexpected warnings: %+v", r.Warnings)
	}
}

func TestParseView(t *testing.T) {
	if v, err := ParseView(""); err != nil || v != ViewSale {
		t.Errorf("ParseView(\"\") = %q, %v", v, err)
	}
	if v, err := ParseView("signature"); err != nil || v != ViewSignature {
		t.Errorf("ParseView(signature) = %q, %v", v, err)
	}
	if _, err := ParseView("car"); err != ErrInvalidView {
		t.Errorf("err = %v, want ErrInvalidView", err)
	}
}

func TestCheckEntries(t *testing.T) {
	good := entry(uuid.New(), "Sedan", "", 5000, true, 0, "Ali")
	broken := entry(uuid.New(), "SUV", "", 5000, true, 1000, "Ali")
	broken.Amount = 5000
	orphan := entry(uuid.New(), "Van", "", 5000, true, 0)
	orphan.SaleStatus = "confirmed"

	issues := CheckEntries([]Entry{good, broken, orphan})
	kinds := map[IssueKind]int{}
	for _, is := range issues {
		kinds[is.Kind]++
	}
	if kinds[IssueAmountMismatch] != 1 || kinds[IssueSaleNotReviewed] != 1 || kinds[IssueNoTechnicians] != 1 {
		t.Errorf("issues = %+v", issues)
	}

	reviewed := ReviewedWithoutIncentive([]uuid.UUID{uuid.New()})
	if len(reviewed) != 1 || reviewed[0].Kind != IssueReviewedWithoutIncentive || reviewed[0].IncentiveID != nil {
		t.Errorf("reviewed issues = %+v", reviewed)
	}
}
