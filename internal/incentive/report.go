package incentive

import "errors"

type View string

const (
	ViewSale      View = "sale"
	ViewSignature View = "signature"
)

var ErrInvalidView = errors.New("view must be sale or signature")

// ParseView defaults to the per-sale view.
func ParseView(s string) (View, error) {
	switch View(s) {
	case "", ViewSale:
		return ViewSale, nil
	case ViewSignature:
		return ViewSignature, nil
	}
	return "", ErrInvalidView
}

type Totals struct {
	StandardCount   int   `json:"standard_count"`
	StandardTotal   int64 `json:"standard_total"`
	AdditionalCount int   `json:"additional_count"`
	AdditionalTotal int64 `json:"additional_total"`
	GrandTotal      int64 `json:"grand_total"`
}

// ComputeTotals sums a day's money. Entries are always collapsed per sale
// first so a sale is paid once regardless of how many rows it has.
func ComputeTotals(entries []Entry) Totals {
	var t Totals
	for _, g := range GroupBySale(entries) {
		if g.IsStandard {
			t.StandardCount++
			t.StandardTotal += g.FlatRate
		}
		if g.AdditionalAmount > 0 {
			t.AdditionalCount++
			t.AdditionalTotal += g.AdditionalAmount
		}
	}
	t.GrandTotal = t.StandardTotal + t.AdditionalTotal
	return t
}

// Report is the two-section daily reconciliation. A sale with both a flat
// rate and an extra appears in both sections.
type Report struct {
	Day        string  `json:"day"`
	View       View    `json:"view"`
	Standard   []Group `json:"standard"`
	Additional []Group `json:"additional"`
	Totals     Totals  `json:"totals"`
	Warnings   []Issue `json:"warnings"`
}

// BuildReport expects entries already filtered to day.
func BuildReport(day string, view View, entries []Entry) Report {
	var groups []Group
	if view == ViewSignature {
		groups = GroupBySignature(entries)
	} else {
		groups = GroupBySale(entries)
	}

	r := Report{
		Day:        day,
		View:       view,
		Standard:   []Group{},
		Additional: []Group{},
		Totals:     ComputeTotals(entries),
		Warnings:   CheckEntries(entries),
	}
	for _, g := range groups {
		if g.IsStandard {
			r.Standard = append(r.Standard, g)
		}
		if g.AdditionalAmount > 0 {
			r.Additional = append(r.Additional, g)
		}
	}
	return r
}
