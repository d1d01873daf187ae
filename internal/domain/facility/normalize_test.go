package facility

import (
	"sort"
	"testing"
)

func TestClassifyType(t *testing.T) {
	tests := []struct {
		raw  string
		want FacilityType
	}{
		{"County Referral Hospital", TypeHospital},
		{"HOSPITAL", TypeHospital},
		{"Methadone Clinic", TypeClinic},
		{"KP Site", TypeKPSite},
		{"kp site", TypeKPSite},
		{"Health Facility", TypeHealthCenter},
		{"", TypeHealthCenter},
		{"KP-Site", TypeHealthCenter},
		{"Hospital clinic", TypeHospital},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := ClassifyType(tt.raw); got != tt.want {
				t.Errorf("ClassifyType(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSyntheticMetrics_Deterministic(t *testing.T) {
	a := SyntheticMetrics("20261")
	b := SyntheticMetrics("20261")
	if a != b {
		t.Fatalf("expected identical metrics, got %+v and %+v", a, b)
	}
	want := Metrics{Patients: 279, HTSTests: 139, CareEnrollments: 71, ViralSuppression: 80, RetentionRate: 75}
	if a != want {
		t.Errorf("expected %+v, got %+v", want, a)
	}
}

func TestSyntheticMetrics_NonNumericCode(t *testing.T) {
	got := SyntheticMetrics("not-a-code")
	want := Metrics{Patients: 429, HTSTests: 214, CareEnrollments: 111, ViralSuppression: 81, RetentionRate: 76}
	if got != want {
		t.Errorf("expected default-seed metrics %+v, got %+v", want, got)
	}
}

func TestSyntheticMetrics_Ranges(t *testing.T) {
	for _, raw := range FallbackFacilities() {
		m := SyntheticMetrics(raw.MFLCode)
		if m.Patients < 200 || m.Patients >= 3000 {
			t.Errorf("%s: patients %d out of range", raw.MFLCode, m.Patients)
		}
		if m.HTSTests < 100 || m.HTSTests >= 1500 {
			t.Errorf("%s: hts tests %d out of range", raw.MFLCode, m.HTSTests)
		}
		if m.CareEnrollments < 50 || m.CareEnrollments >= 800 {
			t.Errorf("%s: enrollments %d out of range", raw.MFLCode, m.CareEnrollments)
		}
		if m.ViralSuppression < 80 || m.ViralSuppression >= 95 {
			t.Errorf("%s: suppression %d out of range", raw.MFLCode, m.ViralSuppression)
		}
		if m.RetentionRate < 75 || m.RetentionRate >= 92 {
			t.Errorf("%s: retention %d out of range", raw.MFLCode, m.RetentionRate)
		}
	}
}

func TestCountyID(t *testing.T) {
	tests := map[string]string{
		"Nairobi":          "nairobi",
		"Homa Bay":         "homa-bay",
		"Elgeyo  Marakwet": "elgeyo-marakwet",
		"Tharaka\tNithi":   "tharaka-nithi",
	}
	for in, want := range tests {
		if got := CountyID(in); got != want {
			t.Errorf("CountyID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTransform_Kibera(t *testing.T) {
	f := Transform(RawFacility{
		MFLCode: "20261", Facility: "Kibera Level 3", Type: "Health Facility",
		County: "Nairobi", Subcounty: "Kibra", Ward: "Sarang'ombe", Program: "CONNECT",
	})
	if f.ID != "20261" || f.MFLCode != "20261" {
		t.Errorf("expected id and mfl code 20261, got %s/%s", f.ID, f.MFLCode)
	}
	if f.Type != TypeHealthCenter {
		t.Errorf("expected health_center, got %s", f.Type)
	}
	if f.Subcounty != "Kibra" || f.Ward != "Sarang'ombe" || f.Program != "CONNECT" {
		t.Errorf("expected location fields copied verbatim, got %+v", f)
	}
}

func TestNormalize_KiberaUnderNairobi(t *testing.T) {
	counties := Normalize([]RawFacility{
		{MFLCode: "20261", Facility: "Kibera Level 3", Type: "Health Facility", County: "Nairobi"},
	})
	if len(counties) != 1 {
		t.Fatalf("expected 1 county, got %d", len(counties))
	}
	if counties[0].Name != "Nairobi" || counties[0].ID != "nairobi" {
		t.Errorf("unexpected county %s/%s", counties[0].ID, counties[0].Name)
	}
	if counties[0].Facilities[0].Type != TypeHealthCenter {
		t.Errorf("expected health_center, got %s", counties[0].Facilities[0].Type)
	}
}

func TestNormalize_Sorted(t *testing.T) {
	counties := Normalize(FallbackFacilities())

	names := make([]string, len(counties))
	for i, c := range counties {
		names[i] = c.Name
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("expected counties sorted, got %v", names)
	}
	want := []string{"Kisumu", "Kitui", "Machakos", "Migori", "Nairobi"}
	if len(names) != len(want) {
		t.Fatalf("expected %d counties, got %v", len(want), names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("county %d: expected %s, got %s", i, want[i], names[i])
		}
	}

	total := 0
	for _, c := range counties {
		total += len(c.Facilities)
		if !sort.SliceIsSorted(c.Facilities, func(i, j int) bool {
			return c.Facilities[i].Name < c.Facilities[j].Name
		}) {
			t.Errorf("facilities in %s not sorted", c.Name)
		}
	}
	if total != 15 {
		t.Errorf("expected 15 facilities, got %d", total)
	}
}

func TestNormalize_Empty(t *testing.T) {
	if got := Normalize(nil); len(got) != 0 {
		t.Errorf("expected no counties, got %d", len(got))
	}
}

func TestFallbackFacilities_ReturnsCopy(t *testing.T) {
	a := FallbackFacilities()
	a[0].Facility = "changed"
	b := FallbackFacilities()
	if b[0].Facility == "changed" {
		t.Error("expected FallbackFacilities to return an independent copy")
	}
}
