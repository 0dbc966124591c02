package incentive

import (
	"errors"
	"sort"
	"time"
)

// DayLayout is the day key format.
const DayLayout = "2006-01-02"

var ErrInvalidDay = errors.New("day must be formatted as YYYY-MM-DD")

// DayKey buckets a timestamp into a business day.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}

// DayBounds returns the half-open [from, to) interval covering day in loc.
func DayBounds(day string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(DayLayout, day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDay
	}
	return start, start.AddDate(0, 0, 1), nil
}

// NoonOf is the fixed timestamp stamped on retroactive entries.
func NoonOf(day string, loc *time.Location) (time.Time, error) {
	start, err := time.ParseInLocation(DayLayout, day, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDay
	}
	return time.Date(start.Year(), start.Month(), start.Day(), 12, 0, 0, 0, loc), nil
}

// AvailableDays lists the distinct days present in entries, newest first.
func AvailableDays(entries []Entry, loc *time.Location) []string {
	seen := make(map[string]struct{})
	days := []string{}
	for _, e := range entries {
		d := DayKey(e.CreatedAt, loc)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	return days
}

// FilterDay keeps the entries that fall on day.
func FilterDay(entries []Entry, day string, loc *time.Location) []Entry {
	out := []Entry{}
	for _, e := range entries {
		if DayKey(e.CreatedAt, loc) == day {
			out = append(out, e)
		}
	}
	return out
}
