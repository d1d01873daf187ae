package daterange

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	r := Default()
	if r.Label != "May 2025" {
		t.Errorf("expected label May 2025, got %s", r.Label)
	}
	if r.Start.Format(Layout) != "2025-05-01" || r.End.Format(Layout) != "2025-05-31" {
		t.Errorf("unexpected range %s..%s", r.Start.Format(Layout), r.End.Format(Layout))
	}
	if r.Days() != 31 {
		t.Errorf("expected 31 days, got %d", r.Days())
	}
}

func TestMonth_February(t *testing.T) {
	r := Month(2024, time.February)
	if r.End.Format(Layout) != "2024-02-29" {
		t.Errorf("expected leap day end, got %s", r.End.Format(Layout))
	}
}

func TestQuarter(t *testing.T) {
	r, err := Quarter(2025, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Start.Format(Layout) != "2025-04-01" || r.End.Format(Layout) != "2025-06-30" {
		t.Errorf("unexpected quarter %s..%s", r.Start.Format(Layout), r.End.Format(Layout))
	}
	if r.Label != "Q2 2025" {
		t.Errorf("unexpected label %s", r.Label)
	}
	if _, err := Quarter(2025, 5); err == nil {
		t.Error("expected error for quarter 5")
	}
}

func TestParse(t *testing.T) {
	r, err := Parse("2025-03-01", "2025-03-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Label != "March 2025" {
		t.Errorf("expected month label, got %s", r.Label)
	}

	r, err = Parse("2025-03-05", "2025-03-20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Label != "5 Mar 2025 - 20 Mar 2025" {
		t.Errorf("unexpected custom label %s", r.Label)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := [][2]string{
		{"2025-13-01", "2025-12-31"},
		{"2025-01-01", "tomorrow"},
		{"2025-06-01", "2025-05-01"},
	}
	for _, c := range cases {
		if _, err := Parse(c[0], c[1]); err == nil {
			t.Errorf("expected error for %v", c)
		}
	}
}

func TestParseOrDefault(t *testing.T) {
	r, err := ParseOrDefault("", "")
	if err != nil || r.Label != "May 2025" {
		t.Errorf("expected default range, got %v (%v)", r, err)
	}
	if _, err := ParseOrDefault("2025-01-01", ""); err == nil {
		t.Error("expected error when only start is given")
	}
}

func TestPrevious(t *testing.T) {
	q1, _ := Quarter(2025, 1)
	custom, _ := Parse("2025-05-10", "2025-05-19")
	tests := []struct {
		name       string
		in         Range
		start, end string
		label      string
	}{
		{"month", Default(), "2025-04-01", "2025-04-30", "April 2025"},
		{"january wraps year", Month(2025, time.January), "2024-12-01", "2024-12-31", "December 2024"},
		{"quarter", q1, "2024-10-01", "2024-12-31", "Q4 2024"},
		{"custom window", custom, "2025-04-30", "2025-05-09", "30 Apr 2025 - 9 May 2025"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Previous()
			if got.Start.Format(Layout) != tt.start || got.End.Format(Layout) != tt.end || got.Label != tt.label {
				t.Errorf("got %s..%s %q", got.Start.Format(Layout), got.End.Format(Layout), got.Label)
			}
			if tt.name == "custom window" && got.Days() != tt.in.Days() {
				t.Errorf("expected equal length, got %d vs %d", got.Days(), tt.in.Days())
			}
		})
	}
}
