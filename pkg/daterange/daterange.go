// Package daterange models the reporting period selected on the dashboard.
package daterange

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the YYYY-MM-DD form used on the wire.
const Layout = "2006-01-02"

// Range is an inclusive reporting period.
type Range struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
	Label string    `json:"label"`
}

// Default is the period the dashboard opens on: May 2025.
func Default() Range {
	return Month(2025, time.May)
}

// Month returns the full calendar month, labelled like "May 2025".
func Month(year int, month time.Month) Range {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return Range{Start: start, End: end, Label: start.Format("January 2006")}
}

// Quarter returns calendar quarter q (1-4) of year, labelled like "Q2 2025".
func Quarter(year, q int) (Range, error) {
	if q < 1 || q > 4 {
		return Range{}, fmt.Errorf("quarter must be between 1 and 4, got %d", q)
	}
	start := time.Date(year, time.Month(3*(q-1)+1), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, -1)
	return Range{Start: start, End: end, Label: fmt.Sprintf("Q%d %d", q, year)}, nil
}

// Parse builds a custom range from YYYY-MM-DD strings. Both must be set and
// start must not be after end.
func Parse(start, end string) (Range, error) {
	s, err := time.Parse(Layout, strings.TrimSpace(start))
	if err != nil {
		return Range{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	e, err := time.Parse(Layout, strings.TrimSpace(end))
	if err != nil {
		return Range{}, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if s.After(e) {
		return Range{}, fmt.Errorf("start date %s is after end date %s", start, end)
	}
	r := Range{Start: s, End: e}
	r.Label = r.defaultLabel()
	return r, nil
}

// ParseOrDefault is Parse, except that an empty pair yields Default.
func ParseOrDefault(start, end string) (Range, error) {
	if strings.TrimSpace(start) == "" && strings.TrimSpace(end) == "" {
		return Default(), nil
	}
	return Parse(start, end)
}

// Previous is the period a trend compares r against: the prior calendar
// month for a month, the prior quarter for a quarter, and otherwise the
// window of equal length ending the day before r starts.
func (r Range) Previous() Range {
	start, end := r.Start, r.End
	switch {
	case start.Day() == 1 && end.Equal(start.AddDate(0, 1, -1)):
		return Month(start.AddDate(0, -1, 0).Year(), start.AddDate(0, -1, 0).Month())
	case start.Day() == 1 && (start.Month()-1)%3 == 0 && end.Equal(start.AddDate(0, 3, -1)):
		prev := start.AddDate(0, -3, 0)
		q, _ := Quarter(prev.Year(), int(prev.Month()-1)/3+1)
		return q
	}
	days := r.Days()
	prev := Range{Start: start.AddDate(0, 0, -days), End: start.AddDate(0, 0, -1)}
	prev.Label = prev.defaultLabel()
	return prev
}

func (r Range) defaultLabel() string {
	if r.Start.Day() == 1 && r.End.Equal(r.Start.AddDate(0, 1, -1)) {
		return r.Start.Format("January 2006")
	}
	return r.Start.Format("2 Jan 2006") + " - " + r.End.Format("2 Jan 2006")
}

// Days is the number of calendar days covered, inclusive.
func (r Range) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}
