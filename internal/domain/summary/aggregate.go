package summary

import (
	"math"
	"strings"
)

// Gender tags, compared against the lower-cased disagrgender value.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Percent returns part/total*100 rounded half up, clamped to [0,100].
// A non-positive total yields 0.
func Percent(part, total float64) int {
	if total <= 0 || part <= 0 {
		return 0
	}
	p := int(math.Floor(part/total*100 + 0.5))
	if p > 100 {
		return 100
	}
	return p
}

// Aggregate reduces indicator rows to totals, gender splits and an age
// breakdown. Rows without a gender or age tag still count toward the total.
func Aggregate(rows []Indicator) FacilitySummaryData {
	d := FacilitySummaryData{AgeGroups: make(map[string]float64)}

	for _, r := range rows {
		v := float64(r.TotalValue)
		d.Total += v

		switch strings.ToLower(r.Gender) {
		case GenderMale:
			d.Male += v
		case GenderFemale:
			d.Female += v
		}

		if r.AgeGroup == "" {
			continue
		}
		if _, seen := d.AgeGroups[r.AgeGroup]; !seen {
			d.AgeGroupOrder = append(d.AgeGroupOrder, r.AgeGroup)
		}
		d.AgeGroups[r.AgeGroup] += v
	}

	d.MalePercent = Percent(d.Male, d.Total)
	d.FemalePercent = Percent(d.Female, d.Total)
	d.TopAgeGroup, d.TopAgeGroupValue = TopAgeGroup(d.AgeGroupOrder, d.AgeGroups)
	return d
}

// TopAgeGroup walks order keeping a running maximum that starts at zero; a
// group replaces the current top only when strictly greater, so ties keep the
// earliest group and an all-zero breakdown has no top group.
func TopAgeGroup(order []string, groups map[string]float64) (string, float64) {
	top, max := "", 0.0
	for _, label := range order {
		if v := groups[label]; v > max {
			top, max = label, v
		}
	}
	return top, max
}

// AgeGroupBreakdown lists the age groups of d in first-seen order with their
// share of the total.
func AgeGroupBreakdown(d FacilitySummaryData) []AgeGroupTotal {
	out := make([]AgeGroupTotal, 0, len(d.AgeGroupOrder))
	for _, label := range d.AgeGroupOrder {
		v := d.AgeGroups[label]
		out = append(out, AgeGroupTotal{Label: label, Value: v, Percent: Percent(v, d.Total)})
	}
	return out
}
