package dashboard

import "testing"

func TestBand(t *testing.T) {
	tests := []struct {
		pct  float64
		want PerformanceBand
	}{
		{100, BandGood},
		{90, BandGood},
		{89.9, BandFair},
		{75, BandFair},
		{74, BandPoor},
		{0, BandPoor},
	}
	for _, tt := range tests {
		if got := Band(tt.pct); got != tt.want {
			t.Errorf("Band(%v) = %s, want %s", tt.pct, got, tt.want)
		}
	}
	if BandGood.Color() != "#10b981" || BandFair.Color() != "#f59e0b" || BandPoor.Color() != "#ef4444" {
		t.Error("unexpected band colours")
	}
}

func TestFormatCount(t *testing.T) {
	tests := map[float64]string{
		0:       "0",
		999:     "999",
		1000:    "1,000",
		12847:   "12,847",
		2847.6:  "2,848",
		1234567: "1,234,567",
	}
	for in, want := range tests {
		if got := FormatCount(in); got != want {
			t.Errorf("FormatCount(%v) = %s, want %s", in, got, want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	tests := map[float64]string{
		80:     "80%",
		92.4:   "92.4%",
		9.7069: "9.7%",
		0:      "0%",
	}
	for in, want := range tests {
		if got := FormatPercent(in); got != want {
			t.Errorf("FormatPercent(%v) = %s, want %s", in, got, want)
		}
	}
}
