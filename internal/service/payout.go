package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/carsound-ops/api/internal/database"
	"github.com/carsound-ops/api/internal/incentive"
	"github.com/google/uuid"
)

// DirectoryStore reads the technician directory.
type DirectoryStore interface {
	ListTechnicians(ctx context.Context) ([]database.Technician, error)
}

// PayoutRequest carries operator overrides. Amounts are whole number strings;
// technician overrides are keyed by name, staff payouts by directory id.
type PayoutRequest struct {
	Day               string
	Supervisors       int
	TechnicianPayouts map[string]string
	StaffPayouts      map[string]string
}

type PayoutService struct {
	reports   *ReportService
	directory DirectoryStore
	rates     incentive.Rates
}

func NewPayoutService(reports *ReportService, directory DirectoryStore, rates incentive.Rates) *PayoutService {
	return &PayoutService{reports: reports, directory: directory, rates: rates}
}

// Compute builds the payout sheet for a day. Zero supervisors means the
// configured default.
func (s *PayoutService) Compute(ctx context.Context, req PayoutRequest) (incentive.PayoutSheet, error) {
	techOverrides := make(map[string]int64, len(req.TechnicianPayouts))
	for name, raw := range req.TechnicianPayouts {
		amount, err := incentive.ParseAmount(raw)
		if err != nil {
			return incentive.PayoutSheet{}, fmt.Errorf("technician %q: %w", name, err)
		}
		techOverrides[strings.TrimSpace(name)] = amount
	}
	staffPayouts := make(map[uuid.UUID]int64, len(req.StaffPayouts))
	for rawID, raw := range req.StaffPayouts {
		id, err := uuid.Parse(rawID)
		if err != nil {
			return incentive.PayoutSheet{}, fmt.Errorf("%q: %w", rawID, ErrInvalidStaffID)
		}
		amount, err := incentive.ParseAmount(raw)
		if err != nil {
			return incentive.PayoutSheet{}, fmt.Errorf("staff %s: %w", id, err)
		}
		staffPayouts[id] = amount
	}

	supervisors := req.Supervisors
	if supervisors == 0 {
		supervisors = s.rates.DefaultSupervisors
	}

	day, err := s.reports.ResolveDay(ctx, req.Day)
	if err != nil {
		return incentive.PayoutSheet{}, err
	}
	entries, err := s.reports.DayEntries(ctx, day)
	if err != nil {
		return incentive.PayoutSheet{}, err
	}
	techs, err := s.directory.ListTechnicians(ctx)
	if err != nil {
		return incentive.PayoutSheet{}, fmt.Errorf("list technicians: %w", err)
	}

	staff := make([]incentive.Staff, 0, len(techs))
	for _, t := range techs {
		staff = append(staff, incentive.Staff{ID: t.ID, Name: t.Name, Role: t.Role.String})
	}

	return incentive.ComputePayout(incentive.PayoutInput{
		Day:                 day,
		Entries:             entries,
		Directory:           staff,
		TechnicianOverrides: techOverrides,
		StaffPayouts:        staffPayouts,
		Supervisors:         supervisors,
		Rates:               s.rates,
	})
}
