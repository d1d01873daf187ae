package facility

import (
	"slices"
	"strings"

	"github.com/hivdash/hivdash/pkg/seeded"
)

// ClassifyType maps a free-text facility type onto a category by
// case-insensitive substring match. Unmatched strings are health centers.
func ClassifyType(raw string) FacilityType {
	t := strings.ToLower(raw)
	switch {
	case strings.Contains(t, "hospital"):
		return TypeHospital
	case strings.Contains(t, "clinic"):
		return TypeClinic
	case strings.Contains(t, "kp site"):
		return TypeKPSite
	default:
		return TypeHealthCenter
	}
}

// SyntheticMetrics derives reproducible metrics from an MFL code. The listing
// endpoint carries no metrics, so every facility gets these.
func SyntheticMetrics(mflCode string) Metrics {
	seed := seeded.Seed(mflCode)
	return Metrics{
		Patients:         int(seeded.Value(seed, 200, 3000)),
		HTSTests:         int(seeded.Value(seed, 100, 1500)),
		CareEnrollments:  int(seeded.Value(seed, 50, 800)),
		ViralSuppression: int(seeded.Value(seed, 80, 95)),
		RetentionRate:    int(seeded.Value(seed, 75, 92)),
	}
}

// Transform builds a Facility from a raw listing record.
func Transform(raw RawFacility) Facility {
	return Facility{
		ID:        raw.MFLCode,
		Name:      raw.Facility,
		MFLCode:   raw.MFLCode,
		Type:      ClassifyType(raw.Type),
		County:    raw.County,
		Subcounty: raw.Subcounty,
		Ward:      raw.Ward,
		Program:   raw.Program,
		Metrics:   SyntheticMetrics(raw.MFLCode),
	}
}

// Normalize groups raw records by county. Facilities within a county and the
// counties themselves are sorted by name.
func Normalize(raw []RawFacility) []County {
	byName := make(map[string]*County)
	for _, r := range raw {
		c, ok := byName[r.County]
		if !ok {
			c = &County{ID: CountyID(r.County), Name: r.County}
			byName[r.County] = c
		}
		c.Facilities = append(c.Facilities, Transform(r))
	}

	counties := make([]County, 0, len(byName))
	for _, c := range byName {
		slices.SortStableFunc(c.Facilities, func(a, b Facility) int {
			return strings.Compare(a.Name, b.Name)
		})
		counties = append(counties, *c)
	}
	slices.SortStableFunc(counties, func(a, b County) int {
		return strings.Compare(a.Name, b.Name)
	})
	return counties
}
