package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/carsound-ops/api/internal/database"
	"github.com/carsound-ops/api/internal/incentive"
	"github.com/google/uuid"
)

var saleDay = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func incentiveParams(sale database.SaleOperation) database.CreateTechnicianIncentiveParams {
	return database.CreateTechnicianIncentiveParams{
		SaleID:     sale.ID,
		IsStandard: true,
		Amount:     5000,
		FlatRate:   5000,
		CreatedAt:  sale.CreatedAt,
	}
}

func newTestAssignment(ledger *memLedger) (*AssignmentService, *mockTx, *recordingPublisher) {
	tx := &mockTx{}
	pub := &recordingPublisher{}
	newStore := func(db database.DBTX) AssignmentStore { return ledger }
	svc := NewAssignmentService(&mockTxBeginner{tx: tx}, newStore, nil, pub, incentive.DefaultRates(), time.UTC)
	return svc, tx, pub
}

func boolPtr(b bool) *bool { return &b }

func TestTransfer_SedanX(t *testing.T) {
	ledger := newMemLedger()
	ali := database.Technician{ID: uuid.New(), Name: "Ali"}
	ledger.technicians = []database.Technician{ali}
	sale := ledger.addSale("confirmed", saleDay)
	svc, tx, pub := newTestAssignment(ledger)

	res, err := svc.Transfer(context.Background(), TransferRequest{Items: []TransferItem{{
		SaleID:      sale.ID.String(),
		Technicians: []string{"Ali & Hassan"},
		Additional:  "1000",
	}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tx.committed {
		t.Error("transaction not committed")
	}
	if len(res.Transferred) != 1 || res.Transferred[0].Amount != 6000 {
		t.Fatalf("result = %+v", res)
	}

	inc := ledger.incentives[res.Transferred[0].IncentiveID]
	if !inc.IsStandard || inc.AdditionalAmount != 1000 || inc.Amount != 6000 {
		t.Errorf("incentive = %+v", inc)
	}
	if !inc.CreatedAt.Equal(saleDay) {
		t.Errorf("created_at = %s, want the sale's %s", inc.CreatedAt, saleDay)
	}
	names := ledger.names[inc.ID]
	if len(names) != 2 || names[0].TechnicianName != "Ali" || names[1].TechnicianName != "Hassan" {
		t.Fatalf("names = %+v", names)
	}
	if !names[0].TechnicianID.Valid || names[0].TechnicianID.Bytes != ali.ID {
		t.Error("Ali should be linked to the directory")
	}
	if names[1].TechnicianID.Valid {
		t.Error("Hassan is not in the directory")
	}
	if ledger.sales[sale.ID].Status != "reviewed" {
		t.Errorf("sale status = %s, want reviewed", ledger.sales[sale.ID].Status)
	}
	if len(pub.events) != 1 || pub.events[0] != "ledger:incentive.transferred" {
		t.Errorf("events = %v", pub.events)
	}
}

func TestTransfer_SkipsWithoutWriting(t *testing.T) {
	ledger := newMemLedger()
	zero := ledger.addSale("confirmed", saleDay)
	noTech := ledger.addSale("confirmed", saleDay)
	pending := ledger.addSale("pending", saleDay)
	missing := uuid.New()
	svc, _, pub := newTestAssignment(ledger)

	res, err := svc.Transfer(context.Background(), TransferRequest{Items: []TransferItem{
		{SaleID: zero.ID.String(), Technicians: []string{"Ali"}, Standard: boolPtr(false)},
		{SaleID: noTech.ID.String(), Technicians: []string{" ", "&"}},
		{SaleID: pending.ID.String(), Technicians: []string{"Ali"}},
		{SaleID: missing.String(), Technicians: []string{"Ali"}},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Transferred) != 0 {
		t.Errorf("transferred = %+v", res.Transferred)
	}
	want := map[uuid.UUID]string{
		zero.ID:    SkipZeroTotal,
		noTech.ID:  SkipNoTechnicians,
		pending.ID: SkipNotConfirmed,
		missing:    SkipNotFound,
	}
	for _, s := range res.Skipped {
		if want[s.SaleID] != s.Reason {
			t.Errorf("sale %s skipped for %s, want %s", s.SaleID, s.Reason, want[s.SaleID])
		}
	}
	if len(ledger.incentives) != 0 {
		t.Errorf("incentives written: %d", len(ledger.incentives))
	}
	if ledger.sales[zero.ID].Status != "confirmed" {
		t.Error("zero-total sale must stay confirmed")
	}
	if len(pub.events) != 0 {
		t.Errorf("events = %v", pub.events)
	}
}

func TestTransfer_Validation(t *testing.T) {
	svc, _, _ := newTestAssignment(newMemLedger())
	id := uuid.New().String()
	tests := []struct {
		name string
		req  TransferRequest
		want error
	}{
		{"empty", TransferRequest{}, ErrEmptyTransfer},
		{"bad id", TransferRequest{Items: []TransferItem{{SaleID: "nope"}}}, ErrInvalidSaleID},
		{"duplicate", TransferRequest{Items: []TransferItem{{SaleID: id}, {SaleID: id}}}, ErrDuplicateSale},
		{"bad additional", TransferRequest{Items: []TransferItem{{SaleID: id, Additional: "-5"}}}, incentive.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Transfer(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTransfer_ConflictRollsBack(t *testing.T) {
	ledger := newMemLedger()
	sale := ledger.addSale("confirmed", saleDay)
	// Inconsistent data: a confirmed sale that already owns a ledger row.
	if _, err := ledger.CreateTechnicianIncentive(context.Background(), incentiveParams(sale)); err != nil {
		t.Fatal(err)
	}
	svc, tx, _ := newTestAssignment(ledger)

	_, err := svc.Transfer(context.Background(), TransferRequest{Items: []TransferItem{{SaleID: sale.ID.String(), Technicians: []string{"Ali"}}}})
	if !errors.Is(err, ErrAlreadyAssigned) {
		t.Fatalf("err = %v, want ErrAlreadyAssigned", err)
	}
	if tx.committed {
		t.Error("transaction must not commit")
	}
}

func TestTransfer_StoreErrorIsWrapped(t *testing.T) {
	ledger := newMemLedger()
	ledger.failCreate = errStore
	sale := ledger.addSale("confirmed", saleDay)
	svc, tx, _ := newTestAssignment(ledger)

	_, err := svc.Transfer(context.Background(), TransferRequest{Items: []TransferItem{{SaleID: sale.ID.String(), Technicians: []string{"Ali"}}}})
	if !errors.Is(err, errStore) {
		t.Fatalf("err = %v, want wrapped store error", err)
	}
	if tx.committed {
		t.Error("transaction must not commit")
	}
}

func TestTransfer_Busy(t *testing.T) {
	ledger := newMemLedger()
	newStore := func(db database.DBTX) AssignmentStore { return ledger }
	svc := NewAssignmentService(&mockTxBeginner{tx: &mockTx{}}, newStore, busyLocker{}, nil, incentive.DefaultRates(), time.UTC)

	_, err := svc.Transfer(context.Background(), TransferRequest{Items: []TransferItem{{SaleID: uuid.New().String(), Technicians: []string{"Ali"}}}})
	if !errors.Is(err, ErrBusy) {
		t.Errorf("err = %v, want ErrBusy", err)
	}
}

func TestDeleteIncentive_RevertsSaleAndAllowsReassignment(t *testing.T) {
	ledger := newMemLedger()
	sale := ledger.addSale("confirmed", saleDay)
	svc, _, pub := newTestAssignment(ledger)
	ctx := context.Background()

	res, err := svc.Transfer(ctx, TransferRequest{Items: []TransferItem{{SaleID: sale.ID.String(), Technicians: []string{"Ali"}}}})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	id := res.Transferred[0].IncentiveID

	if err := svc.DeleteIncentive(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ledger.sales[sale.ID].Status != "confirmed" {
		t.Errorf("status = %s, want confirmed", ledger.sales[sale.ID].Status)
	}
	if _, ok := ledger.incentives[id]; ok {
		t.Error("incentive still present")
	}

	again, err := svc.Transfer(ctx, TransferRequest{Items: []TransferItem{{SaleID: sale.ID.String(), Technicians: []string{"Hassan"}}}})
	if err != nil || len(again.Transferred) != 1 {
		t.Fatalf("reassign: %+v, %v", again, err)
	}
	if pub.events[1] != "ledger:incentive.deleted" {
		t.Errorf("events = %v", pub.events)
	}

	if err := svc.DeleteIncentive(ctx, uuid.New()); !errors.Is(err, ErrIncentiveNotFound) {
		t.Errorf("err = %v, want ErrIncentiveNotFound", err)
	}
}

func TestDeleteIncentive_PaidIsRefused(t *testing.T) {
	ledger := newMemLedger()
	sale := ledger.addSale("reviewed", saleDay)
	inc, _ := ledger.CreateTechnicianIncentive(context.Background(), incentiveParams(sale))
	inc.IsPaid = true
	ledger.incentives[inc.ID] = inc
	svc, _, _ := newTestAssignment(ledger)

	if err := svc.DeleteIncentive(context.Background(), inc.ID); !errors.Is(err, ErrAlreadyPaid) {
		t.Errorf("err = %v, want ErrAlreadyPaid", err)
	}
	if ledger.sales[sale.ID].Status != "reviewed" {
		t.Error("paid sale must stay reviewed")
	}
}

func TestAddExtra(t *testing.T) {
	ledger := newMemLedger()
	sale := ledger.addSale("reviewed", saleDay)
	flat, _ := ledger.CreateTechnicianIncentive(context.Background(), incentiveParams(sale))

	other := ledger.addSale("reviewed", saleDay)
	params := incentiveParams(other)
	params.IsStandard, params.AdditionalAmount, params.Amount = false, 2000, 2000
	extraOnly, _ := ledger.CreateTechnicianIncentive(context.Background(), params)

	svc, _, _ := newTestAssignment(ledger)
	ctx := context.Background()

	updated, err := svc.AddExtra(ctx, flat.ID, "1500")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.AdditionalAmount != 1500 || updated.Amount != 6500 {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Amount != incentive.Amount(updated.FlatRate, updated.IsStandard, updated.AdditionalAmount) {
		t.Error("amount rule broken")
	}

	if _, err := svc.AddExtra(ctx, flat.ID, "0"); !errors.Is(err, ErrInvalidExtra) {
		t.Errorf("zero extra err = %v", err)
	}
	if _, err := svc.AddExtra(ctx, extraOnly.ID, "100"); !errors.Is(err, ErrNotStandard) {
		t.Errorf("non-standard err = %v", err)
	}
	if _, err := svc.AddExtra(ctx, uuid.New(), "100"); !errors.Is(err, ErrIncentiveNotFound) {
		t.Errorf("missing err = %v", err)
	}
}

func TestCreateRetroactive_Sara(t *testing.T) {
	ledger := newMemLedger()
	svc, _, pub := newTestAssignment(ledger)

	res, err := svc.CreateRetroactive(context.Background(), RetroactiveRequest{
		Day:         "2024-03-01",
		CarType:     "Pickup",
		AmountTotal: "20000",
		Technicians: []string{"Sara"},
		Incentive:   "7000",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Sale.Status != "reviewed" || res.Sale.Details != "Manual entry" {
		t.Errorf("sale = %+v", res.Sale)
	}
	want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if !res.Sale.CreatedAt.Equal(want) || !res.Incentive.CreatedAt.Equal(want) {
		t.Errorf("stamps = %s / %s, want %s", res.Sale.CreatedAt, res.Incentive.CreatedAt, want)
	}
	if !res.Incentive.IsStandard || res.Incentive.AdditionalAmount != 2000 || res.Incentive.Amount != 7000 {
		t.Errorf("incentive = %+v", res.Incentive)
	}
	if pub.events[0] != "ledger:incentive.retroactive" {
		t.Errorf("events = %v", pub.events)
	}

	reports := NewReportService(ledger, time.UTC)
	report, err := reports.Daily(context.Background(), "2024-03-01", "")
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if report.Totals.StandardTotal != 5000 || report.Totals.AdditionalTotal != 2000 {
		t.Errorf("totals = %+v", report.Totals)
	}
	other, err := reports.Daily(context.Background(), "2024-03-02", "")
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if other.Totals.GrandTotal != 0 {
		t.Errorf("entry leaked into 2024-03-02: %+v", other.Totals)
	}
}

func TestCreateRetroactive_Validation(t *testing.T) {
	svc, _, _ := newTestAssignment(newMemLedger())
	base := RetroactiveRequest{Day: "2024-03-01", CarType: "Van", AmountTotal: "100", Technicians: []string{"Sara"}}
	tests := []struct {
		name   string
		modify func(*RetroactiveRequest)
		want   error
	}{
		{"missing day", func(r *RetroactiveRequest) { r.Day = "" }, ErrDayRequired},
		{"bad day", func(r *RetroactiveRequest) { r.Day = "March 1" }, incentive.ErrInvalidDay},
		{"no car", func(r *RetroactiveRequest) { r.CarType = "" }, ErrCarTypeRequired},
		{"no total", func(r *RetroactiveRequest) { r.AmountTotal = "" }, ErrInvalidTotal},
		{"no technicians", func(r *RetroactiveRequest) { r.Technicians = nil }, ErrNoTechnicians},
		{"zero incentive", func(r *RetroactiveRequest) { r.Incentive = "0" }, ErrInvalidIncentive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.modify(&req)
			if _, err := svc.CreateRetroactive(context.Background(), req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
