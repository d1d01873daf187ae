package dashboard

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// PerformanceBand grades percentage metrics.
type PerformanceBand string

const (
	BandGood PerformanceBand = "good"
	BandFair PerformanceBand = "fair"
	BandPoor PerformanceBand = "poor"
)

// Color is the display colour of the band.
func (b PerformanceBand) Color() string {
	switch b {
	case BandGood:
		return "#10b981"
	case BandFair:
		return "#f59e0b"
	case BandPoor:
		return "#ef4444"
	}
	return "#6b7280"
}

// Band grades pct: 90 and above is good, 75 and above fair, otherwise poor.
func Band(pct float64) PerformanceBand {
	switch {
	case pct >= 90:
		return BandGood
	case pct >= 75:
		return BandFair
	default:
		return BandPoor
	}
}

// FormatCount renders v rounded to a whole number with thousands separators.
func FormatCount(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

// FormatPercent renders pct with at most one decimal place and a % suffix.
func FormatPercent(pct float64) string {
	return strconv.FormatFloat(math.Round(pct*10)/10, 'f', -1, 64) + "%"
}
