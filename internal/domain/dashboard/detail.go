package dashboard

import (
	"github.com/hivdash/hivdash/internal/domain/facility"
	"github.com/hivdash/hivdash/internal/platform/statsapi"
)

// Detail is the facility drill-down view.
type Detail struct {
	Facility  facility.Facility `json:"facility"`
	County    string            `json:"county"`
	TypeLabel string            `json:"type_label"`
	TypeColor string            `json:"type_color"`
	Cards     []Card            `json:"cards"`
	Source    statsapi.Source   `json:"source"`
}

// TypeColor is the display colour of a facility type.
func TypeColor(t facility.FacilityType) string {
	switch t {
	case facility.TypeHospital:
		return "#3b82f6"
	case facility.TypeClinic:
		return "#10b981"
	case facility.TypeHealthCenter:
		return "#f59e0b"
	default:
		return "#6b7280"
	}
}

// FacilityDetail builds the five stat cards of f. Percentage cards carry a
// performance band.
func FacilityDetail(f facility.Facility, source statsapi.Source) Detail {
	pct := func(key, title string, v int, icon, color, desc string) Card {
		band := Band(float64(v))
		return Card{
			Key: key, Title: title, Value: float64(v), FormattedValue: FormatPercent(float64(v)),
			Unit: UnitPercent, Icon: icon, Color: color, Description: desc, Band: band, Source: source,
		}
	}
	count := func(key, title string, v int, icon, color, desc string) Card {
		return Card{
			Key: key, Title: title, Value: float64(v), FormattedValue: FormatCount(float64(v)),
			Unit: UnitCount, Icon: icon, Color: color, Description: desc, Source: source,
		}
	}

	return Detail{
		Facility:  f,
		County:    f.County,
		TypeLabel: facility.TypeLabel(f.Type),
		TypeColor: TypeColor(f.Type),
		Source:    source,
		Cards: []Card{
			count("patients", "Total Patients", f.Patients, "Users", "#3b82f6", "Patients served at the facility"),
			count("hts_tests", "HTS Tests", f.HTSTests, "Activity", "#10b981", "HIV tests conducted"),
			count("care_enrollments", "Care Enrollments", f.CareEnrollments, "Heart", "#ef4444", "Patients enrolled in care"),
			pct("viral_suppression", "Viral Suppression", f.ViralSuppression, "Shield", "#8b5cf6", "Patients with suppressed viral load"),
			pct("retention_rate", "Retention Rate", f.RetentionRate, "Clock", "#f59e0b", "Patients retained in the program"),
		},
	}
}
