package incentive

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

const (
	StaffRoleTechnician = "technician"
	StaffRolePrep       = "prep"
	StaffRoleSales      = "sales"
)

var (
	ErrInvalidSupervisorCount = errors.New("supervisors must be at least 1")
	ErrNegativePayout         = errors.New("payout must not be negative")
	ErrUnknownStaff           = errors.New("staff member is not a prep or sales member of the directory")
	ErrUnknownTechnician      = errors.New("technician has no line on this payout sheet")
)

// Staff is a directory member. An empty Role reads as technician.
type Staff struct {
	ID   uuid.UUID
	Name string
	Role string
}

func (s Staff) EffectiveRole() string {
	if s.Role == "" {
		return StaffRoleTechnician
	}
	return s.Role
}

type PayoutInput struct {
	Day     string
	Entries []Entry
	// Directory is every known staff member, any role.
	Directory []Staff
	// TechnicianOverrides replaces the suggested payout, keyed by name.
	TechnicianOverrides map[string]int64
	// StaffPayouts are prep and sales payouts keyed by directory id.
	StaffPayouts map[uuid.UUID]int64
	Supervisors  int
	Rates        Rates
}

type TechnicianLine struct {
	Name         string     `json:"name"`
	TechnicianID *uuid.UUID `json:"technician_id,omitempty"`
	Cars         int        `json:"cars"`
	Suggested    int64      `json:"suggested"`
	Payout       int64      `json:"payout"`
	Overridden   bool       `json:"overridden"`
}

type StaffLine struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Role   string    `json:"role"`
	Payout int64     `json:"payout"`
}

type PayoutSheet struct {
	Day             string           `json:"day"`
	Totals          Totals           `json:"totals"`
	Pool            int64            `json:"pool"`
	Technicians     []TechnicianLine `json:"technicians"`
	Prep            []StaffLine      `json:"prep"`
	Sales           []StaffLine      `json:"sales"`
	TechnicianTotal int64            `json:"technician_total"`
	PrepTotal       int64            `json:"prep_total"`
	SalesTotal      int64            `json:"sales_total"`
	Surplus         int64            `json:"surplus"`
	Supervisors     int              `json:"supervisors"`
	PerSupervisor   int64            `json:"per_supervisor"`
	Remainder       int64            `json:"remainder"`
	Warnings        []string         `json:"warnings"`
}

// CountCars counts, per person, the distinct sales they worked on. Combined
// legacy names are split so each person is credited once per sale. Names
// match case-insensitively and are reported under their first spelling.
func CountCars(entries []Entry) (map[string]int, []string) {
	counts := make(map[string]int)
	spelling := make(map[string]string)
	order := []string{}
	for _, g := range GroupBySale(entries) {
		for _, name := range SplitNames(g.Technicians) {
			key := nameKey(name)
			first, ok := spelling[key]
			if !ok {
				first = name
				spelling[key] = name
				order = append(order, name)
			}
			counts[first]++
		}
	}
	return counts, order
}

// ComputePayout distributes a day's pool. Technicians are paid first, then
// prep and sales staff; whatever is left is split evenly between supervisors
// with integer division. The remainder is reported and stays undistributed.
func ComputePayout(in PayoutInput) (PayoutSheet, error) {
	if in.Supervisors < 1 {
		return PayoutSheet{}, ErrInvalidSupervisorCount
	}

	totals := ComputeTotals(in.Entries)
	sheet := PayoutSheet{
		Day:         in.Day,
		Totals:      totals,
		Pool:        totals.GrandTotal,
		Technicians: []TechnicianLine{},
		Prep:        []StaffLine{},
		Sales:       []StaffLine{},
		Supervisors: in.Supervisors,
		Warnings:    []string{},
	}

	counts, order := CountCars(in.Entries)
	countByKey := make(map[string]int, len(counts))
	for name, n := range counts {
		countByKey[nameKey(name)] += n
	}

	listed := make(map[string]int)
	addLine := func(name string, id *uuid.UUID) {
		key := nameKey(name)
		if _, ok := listed[key]; ok {
			return
		}
		cars := countByKey[key]
		listed[key] = len(sheet.Technicians)
		sheet.Technicians = append(sheet.Technicians, TechnicianLine{
			Name:         name,
			TechnicianID: id,
			Cars:         cars,
			Suggested:    int64(cars) * in.Rates.PerCarRate,
			Payout:       int64(cars) * in.Rates.PerCarRate,
		})
	}

	staffByID := make(map[uuid.UUID]Staff)
	for _, s := range in.Directory {
		switch s.EffectiveRole() {
		case StaffRoleTechnician:
			id := s.ID
			addLine(s.Name, &id)
		case StaffRolePrep, StaffRoleSales:
			staffByID[s.ID] = s
		}
	}
	for _, name := range order {
		addLine(name, nil)
	}

	for _, name := range sortedKeys(in.TechnicianOverrides) {
		amount := in.TechnicianOverrides[name]
		i, ok := listed[nameKey(name)]
		if !ok {
			return PayoutSheet{}, fmt.Errorf("%q: %w", name, ErrUnknownTechnician)
		}
		if amount < 0 {
			return PayoutSheet{}, fmt.Errorf("%q: %w", name, ErrNegativePayout)
		}
		sheet.Technicians[i].Payout = amount
		sheet.Technicians[i].Overridden = true
	}
	for _, line := range sheet.Technicians {
		sheet.TechnicianTotal += line.Payout
	}

	staffIDs := make([]uuid.UUID, 0, len(in.StaffPayouts))
	for id := range in.StaffPayouts {
		staffIDs = append(staffIDs, id)
	}
	sort.Slice(staffIDs, func(i, j int) bool { return staffIDs[i].String() < staffIDs[j].String() })
	for _, id := range staffIDs {
		amount := in.StaffPayouts[id]
		if _, ok := staffByID[id]; !ok {
			return PayoutSheet{}, fmt.Errorf("%s: %w", id, ErrUnknownStaff)
		}
		if amount < 0 {
			return PayoutSheet{}, fmt.Errorf("%s: %w", id, ErrNegativePayout)
		}
	}
	for _, s := range in.Directory {
		st, ok := staffByID[s.ID]
		if !ok {
			continue
		}
		line := StaffLine{ID: st.ID, Name: st.Name, Role: st.Role, Payout: in.StaffPayouts[st.ID]}
		if st.Role == StaffRolePrep {
			sheet.Prep = append(sheet.Prep, line)
			sheet.PrepTotal += line.Payout
		} else {
			sheet.Sales = append(sheet.Sales, line)
			sheet.SalesTotal += line.Payout
		}
	}

	sheet.Surplus = sheet.Pool - sheet.TechnicianTotal - sheet.PrepTotal - sheet.SalesTotal
	n := int64(in.Supervisors)
	sheet.PerSupervisor = sheet.Surplus / n
	sheet.Remainder = sheet.Surplus - sheet.PerSupervisor*n

	if sheet.Surplus < 0 {
		sheet.Warnings = append(sheet.Warnings,
			fmt.Sprintf("payouts exceed the pool by %d", -sheet.Surplus))
	}
	return sheet, nil
}
