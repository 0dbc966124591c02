package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/carsound-ops/api/internal/database"
	"github.com/carsound-ops/api/internal/incentive"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ReportStore defines the read-only ledger queries behind reports.
// Satisfied by *database.Queries.
type ReportStore interface {
	ListUnpaidIncentives(ctx context.Context, arg database.ListUnpaidIncentivesParams) ([]database.IncentiveLedgerRow, error)
	ListIncentivesBySale(ctx context.Context, saleID uuid.UUID) ([]database.IncentiveLedgerRow, error)
	ListIncentivesWithUnreviewedSale(ctx context.Context) ([]database.IncentiveLedgerRow, error)
	ListReviewedSalesWithoutIncentive(ctx context.Context) ([]database.SaleOperation, error)
}

// ReportService reads unpaid ledger snapshots and hands them to the pure
// reconciliation functions.
type ReportService struct {
	store ReportStore
	loc   *time.Location
}

func NewReportService(store ReportStore, loc *time.Location) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{store: store, loc: loc}
}

// AvailableDays lists days that still have unpaid incentives, newest first.
func (s *ReportService) AvailableDays(ctx context.Context) ([]string, error) {
	rows, err := s.store.ListUnpaidIncentives(ctx, database.ListUnpaidIncentivesParams{})
	if err != nil {
		return nil, fmt.Errorf("list unpaid incentives: %w", err)
	}
	return incentive.AvailableDays(entriesFromRows(rows), s.loc), nil
}

// ResolveDay validates day, or picks the newest open day when it is empty.
func (s *ReportService) ResolveDay(ctx context.Context, day string) (string, error) {
	day = strings.TrimSpace(day)
	if day != "" {
		if _, _, err := incentive.DayBounds(day, s.loc); err != nil {
			return "", err
		}
		return day, nil
	}
	days, err := s.AvailableDays(ctx)
	if err != nil {
		return "", err
	}
	if len(days) == 0 {
		return "", ErrNoOpenDays
	}
	return days[0], nil
}

// Unpaid returns every unpaid ledger entry.
func (s *ReportService) Unpaid(ctx context.Context) ([]incentive.Entry, error) {
	rows, err := s.store.ListUnpaidIncentives(ctx, database.ListUnpaidIncentivesParams{})
	if err != nil {
		return nil, fmt.Errorf("list unpaid incentives: %w", err)
	}
	return entriesFromRows(rows), nil
}

// DayEntries returns the unpaid entries created on day.
func (s *ReportService) DayEntries(ctx context.Context, day string) ([]incentive.Entry, error) {
	from, to, err := incentive.DayBounds(day, s.loc)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListUnpaidIncentives(ctx, database.ListUnpaidIncentivesParams{
		From: pgtype.Timestamptz{Time: from, Valid: true},
		To:   pgtype.Timestamptz{Time: to, Valid: true},
	})
	if err != nil {
		return nil, fmt.Errorf("list unpaid incentives for %s: %w", day, err)
	}
	return entriesFromRows(rows), nil
}

// Daily builds the two-section report for day.
func (s *ReportService) Daily(ctx context.Context, day, view string) (incentive.Report, error) {
	v, err := incentive.ParseView(view)
	if err != nil {
		return incentive.Report{}, err
	}
	day, err = s.ResolveDay(ctx, day)
	if err != nil {
		return incentive.Report{}, err
	}
	entries, err := s.DayEntries(ctx, day)
	if err != nil {
		return incentive.Report{}, err
	}
	return incentive.BuildReport(day, v, entries), nil
}

// SaleGroup returns the merged ledger view of a single sale.
func (s *ReportService) SaleGroup(ctx context.Context, saleID uuid.UUID) (incentive.Group, error) {
	rows, err := s.store.ListIncentivesBySale(ctx, saleID)
	if err != nil {
		return incentive.Group{}, fmt.Errorf("list incentives by sale: %w", err)
	}
	groups := incentive.GroupBySale(entriesFromRows(rows))
	if len(groups) == 0 {
		return incentive.Group{}, ErrIncentiveNotFound
	}
	return groups[0], nil
}

// Consistency reports ledger rows and sales that disagree with each other.
func (s *ReportService) Consistency(ctx context.Context) ([]incentive.Issue, error) {
	orphans, err := s.store.ListReviewedSalesWithoutIncentive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reviewed sales without incentive: %w", err)
	}
	unreviewed, err := s.store.ListIncentivesWithUnreviewedSale(ctx)
	if err != nil {
		return nil, fmt.Errorf("list incentives with unreviewed sale: %w", err)
	}
	unpaid, err := s.store.ListUnpaidIncentives(ctx, database.ListUnpaidIncentivesParams{})
	if err != nil {
		return nil, fmt.Errorf("list unpaid incentives: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(orphans))
	for _, o := range orphans {
		ids = append(ids, o.ID)
	}

	issues := incentive.ReviewedWithoutIncentive(ids)
	seen := make(map[string]struct{})
	for _, is := range incentive.CheckEntries(append(entriesFromRows(unreviewed), entriesFromRows(unpaid)...)) {
		key := string(is.Kind) + is.IncentiveID.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		issues = append(issues, is)
	}
	return issues, nil
}

func entriesFromRows(rows []database.IncentiveLedgerRow) []incentive.Entry {
	entries := make([]incentive.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, incentive.Entry{
			ID:               r.ID,
			SaleID:           r.SaleID,
			CarType:          r.CarType,
			Details:          r.Details,
			AmountTotal:      r.AmountTotal,
			SaleStatus:       r.SaleStatus,
			Technicians:      r.TechnicianNames,
			IsStandard:       r.IsStandard,
			AdditionalAmount: r.AdditionalAmount,
			Amount:           r.Amount,
			FlatRate:         r.FlatRate,
			Notes:            r.Notes.String,
			IsPaid:           r.IsPaid,
			CreatedAt:        r.CreatedAt,
		})
	}
	return entries
}
