package facility

import (
	"regexp"
	"strings"
)

// RawFacility is one record of the facility listing endpoint.
type RawFacility struct {
	MFLCode   string `json:"mflcode"`
	Facility  string `json:"facility"`
	Type      string `json:"type"`
	County    string `json:"county"`
	Subcounty string `json:"subcounty"`
	Ward      string `json:"ward"`
	Program   string `json:"program"`
}

// FacilityType is the normalized facility category.
type FacilityType string

const (
	TypeHospital     FacilityType = "hospital"
	TypeClinic       FacilityType = "clinic"
	TypeHealthCenter FacilityType = "health_center"
	TypeKPSite       FacilityType = "kp_site"
)

// Valid reports whether t is one of the four known categories.
func (t FacilityType) Valid() bool {
	switch t {
	case TypeHospital, TypeClinic, TypeHealthCenter, TypeKPSite:
		return true
	}
	return false
}

// TypeLabel returns the display label for t.
func TypeLabel(t FacilityType) string {
	switch t {
	case TypeHospital:
		return "Hospital"
	case TypeClinic:
		return "Clinic"
	case TypeHealthCenter:
		return "Health Center"
	case TypeKPSite:
		return "KP Site"
	default:
		return "Facility"
	}
}

// Metrics are the operational figures shown for a facility.
type Metrics struct {
	Patients         int `json:"patients"`
	HTSTests         int `json:"hts_tests"`
	CareEnrollments  int `json:"care_enrollments"`
	ViralSuppression int `json:"viral_suppression"`
	RetentionRate    int `json:"retention_rate"`
}

// Facility is a normalized facility record. Values are never mutated after
// Transform builds them.
type Facility struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	MFLCode   string       `json:"mfl_code"`
	Type      FacilityType `json:"type"`
	County    string       `json:"county"`
	Subcounty string       `json:"subcounty"`
	Ward      string       `json:"ward"`
	Program   string       `json:"program"`
	Metrics
}

// County groups the facilities that share a county name.
type County struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Facilities []Facility `json:"facilities"`
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// CountyID derives the county identifier from its name: lower-cased, with
// each whitespace run replaced by a hyphen.
func CountyID(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(name), "-")
}
