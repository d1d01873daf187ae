package summary

import (
	"strings"

	"github.com/hivdash/hivdash/internal/platform/statsapi"
	"github.com/hivdash/hivdash/pkg/seeded"
)

// StandardAgeBands are the age disaggregations used for mock rows.
var StandardAgeBands = []string{
	"<1", "1-4", "5-9", "10-14", "15-19", "20-24",
	"25-29", "30-34", "35-39", "40-44", "45-49", "50+",
}

// MockIndicators builds substitute rows for q: one per location, gender and
// standard age band. Values depend only on the query, so repeated failures
// for the same query produce identical figures.
func MockIndicators(q statsapi.Query) []Indicator {
	locations := q.LocationIDs
	if len(locations) == 0 {
		locations = []string{""}
	}
	name := q.Modality
	if name == "" {
		name = q.ReportDept
	}
	salt := strings.Join([]string{q.ReportDept, q.Modality, q.Start.Format(statsapi.DateLayout)}, "|")

	rows := make([]Indicator, 0, len(locations)*2*len(StandardAgeBands))
	for _, loc := range locations {
		seed := seeded.Seed(loc)
		for _, gender := range []string{GenderMale, GenderFemale} {
			for _, band := range StandardAgeBands {
				s := seeded.Derive(seed, salt+"|"+gender+"|"+band)
				rows = append(rows, Indicator{
					IndicatorID:   "mock",
					IndicatorName: name,
					Gender:        gender,
					AgeGroup:      band,
					LocationID:    Code(loc),
					TotalValue:    Number(seeded.Value(s, 0, 150)),
				})
			}
		}
	}
	return rows
}
