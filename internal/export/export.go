// Package export renders reports and payout sheets as xlsx workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/carsound-ops/api/internal/incentive"
	"github.com/xuri/excelize/v2"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Options struct {
	RightToLeft bool
}

var reportHeader = []interface{}{"#", "Section", "Car", "Details", "Amount received", "Incentive", "Technicians", "Notes"}

// DailyReport writes the standard section followed by the additional section
// and a grand-total footer.
func DailyReport(w io.Writer, r incentive.Report, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Report " + r.Day
	if err := newSheet(f, sheet, opts); err != nil {
		return err
	}

	row := 1
	if err := setRow(f, sheet, row, reportHeader); err != nil {
		return err
	}
	n := 0
	for _, g := range r.Standard {
		row++
		n++
		if err := setRow(f, sheet, row, []interface{}{
			n, "Standard", g.CarType, g.Details, g.AmountTotal, g.FlatRate, incentive.JoinNames(g.Technicians), g.Notes,
		}); err != nil {
			return err
		}
	}
	for _, g := range r.Additional {
		row++
		n++
		if err := setRow(f, sheet, row, []interface{}{
			n, "Additional", g.CarType, g.Details, g.AmountTotal, g.AdditionalAmount, incentive.JoinNames(g.Technicians), g.Notes,
		}); err != nil {
			return err
		}
	}

	row += 2
	footer := [][]interface{}{
		{"", "Standard total", "", "", "", r.Totals.StandardTotal},
		{"", "Additional total", "", "", "", r.Totals.AdditionalTotal},
		{"", "Grand total", "", "", "", r.Totals.GrandTotal},
	}
	for _, vals := range footer {
		if err := setRow(f, sheet, row, vals); err != nil {
			return err
		}
		row++
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// PayoutSheet writes technician, prep and sales lines and the supervisor split.
func PayoutSheet(w io.Writer, p incentive.PayoutSheet, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Payout " + p.Day
	if err := newSheet(f, sheet, opts); err != nil {
		return err
	}

	rows := [][]interface{}{{"Name", "Role", "Cars", "Suggested", "Payout"}}
	for _, l := range p.Technicians {
		rows = append(rows, []interface{}{l.Name, incentive.StaffRoleTechnician, l.Cars, l.Suggested, l.Payout})
	}
	for _, l := range p.Prep {
		rows = append(rows, []interface{}{l.Name, l.Role, "", "", l.Payout})
	}
	for _, l := range p.Sales {
		rows = append(rows, []interface{}{l.Name, l.Role, "", "", l.Payout})
	}
	rows = append(rows,
		[]interface{}{},
		[]interface{}{"Pool", "", "", "", p.Pool},
		[]interface{}{"Technicians", "", "", "", p.TechnicianTotal},
		[]interface{}{"Prep", "", "", "", p.PrepTotal},
		[]interface{}{"Sales", "", "", "", p.SalesTotal},
		[]interface{}{"Surplus", "", "", "", p.Surplus},
		[]interface{}{"Supervisors", "", "", "", p.Supervisors},
		[]interface{}{"Per supervisor", "", "", "", p.PerSupervisor},
		[]interface{}{"Remainder", "", "", "", p.Remainder},
	)
	for i, vals := range rows {
		if err := setRow(f, sheet, i+1, vals); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func newSheet(f *excelize.File, name string, opts Options) error {
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if opts.RightToLeft {
		rtl := true
		if err := f.SetSheetView(name, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
			return fmt.Errorf("set sheet view: %w", err)
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, vals []interface{}) error {
	if len(vals) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("set row %d: %w", row, err)
	}
	return nil
}
