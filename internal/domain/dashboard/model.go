package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/hivdash/hivdash/internal/platform/statsapi"
	"github.com/hivdash/hivdash/pkg/daterange"
)

// Category selects the set of metrics shown on the dashboard.
type Category string

const (
	CategoryHTS  Category = "hts"
	CategoryCare Category = "care"
)

// ParseCategory accepts "hts" and "care" (case-insensitive). "care-treatment"
// is accepted as an alias of care.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hts":
		return CategoryHTS, nil
	case "care", "care-treatment":
		return CategoryCare, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// MetricSpec describes one card and the summary query behind it.
type MetricSpec struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	ReportDept  string `json:"reportdept"`
	Modality    string `json:"modality"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

const (
	KeyTested     = "hts_tested"
	KeyPositive   = "hts_positive"
	KeyRetest     = "hts_retest"
	KeyPositivity = "hts_positivity"

	KeyActive          = "care_active"
	KeyNew             = "care_new"
	KeySuppressed      = "care_suppressed"
	KeyLTFU            = "care_ltfu"
	KeySuppressionRate = "care_suppression_rate"
)

var HTSMetrics = []MetricSpec{
	{Key: KeyTested, Title: "HTS Total Tested", ReportDept: "HTS", Modality: "HTS_TST", Icon: "Activity", Color: "#3b82f6", Description: "HIV tests conducted in the period"},
	{Key: KeyPositive, Title: "HTS Positive", ReportDept: "HTS", Modality: "HTS_POS", Icon: "Target", Color: "#ef4444", Description: "Positive test results"},
	{Key: KeyRetest, Title: "HTS Retest", ReportDept: "HTS", Modality: "HTS_RETEST", Icon: "TrendingUp", Color: "#f59e0b", Description: "Retests for verification"},
}

var CareMetrics = []MetricSpec{
	{Key: KeyActive, Title: "Active Patients", ReportDept: "CARE", Modality: "TX_CURR", Icon: "Users", Color: "#3b82f6", Description: "Patients currently on treatment"},
	{Key: KeyNew, Title: "New Enrollments", ReportDept: "CARE", Modality: "TX_NEW", Icon: "UserPlus", Color: "#10b981", Description: "New patients in the period"},
	{Key: KeySuppressed, Title: "Viral Load Suppressed", ReportDept: "CARE", Modality: "TX_PVLS", Icon: "Shield", Color: "#8b5cf6", Description: "Patients with suppressed viral load"},
	{Key: KeyLTFU, Title: "Lost to Follow-up", ReportDept: "CARE", Modality: "TX_ML", Icon: "AlertTriangle", Color: "#ef4444", Description: "Patients lost to follow-up"},
}

// MetricsFor returns the metric list of c.
func MetricsFor(c Category) []MetricSpec {
	if c == CategoryCare {
		return CareMetrics
	}
	return HTSMetrics
}

// Filter is the dashboard selection: a category, an optional set of
// locations (empty means all) and a reporting period.
type Filter struct {
	Category    Category        `json:"category"`
	LocationIDs []string        `json:"location_ids,omitempty"`
	Range       daterange.Range `json:"range"`
}

// DefaultFilter is the HTS dashboard for every location over the default period.
func DefaultFilter() Filter {
	return Filter{Category: CategoryHTS, Range: daterange.Default()}
}

// Query builds the summary query for metric m under f.
func (f Filter) Query(m MetricSpec) statsapi.Query {
	return statsapi.Query{
		ReportDept:  m.ReportDept,
		Modality:    m.Modality,
		LocationIDs: f.LocationIDs,
		Start:       f.Range.Start,
		End:         f.Range.End,
	}
}

// Unit tells clients how to render a card value.
type Unit string

const (
	UnitCount   Unit = "count"
	UnitPercent Unit = "percent"
)

// ChangeType is the direction of a card's trend against the previous period.
type ChangeType string

const (
	ChangeIncrease ChangeType = "increase"
	ChangeDecrease ChangeType = "decrease"
)

// Card is one rendered dashboard tile.
type Card struct {
	Key            string          `json:"key"`
	Title          string          `json:"title"`
	Value          float64         `json:"value"`
	FormattedValue string          `json:"formatted_value"`
	Unit           Unit            `json:"unit"`
	Icon           string          `json:"icon"`
	Color          string          `json:"color"`
	Description    string          `json:"description"`
	MalePercent    int             `json:"male_percent"`
	FemalePercent  int             `json:"female_percent"`
	TopAgeGroup    string          `json:"top_age_group,omitempty"`
	Band           PerformanceBand `json:"band,omitempty"`
	Change         float64         `json:"change"`
	ChangeType     ChangeType      `json:"change_type"`
	Source         statsapi.Source `json:"source"`
}

// Board is a fully loaded dashboard. Card trends compare against Previous.
type Board struct {
	Filter   Filter          `json:"filter"`
	Previous daterange.Range `json:"previous_range"`
	Cards    []Card          `json:"cards"`
	Source   statsapi.Source `json:"source"`
	LoadedAt time.Time       `json:"loaded_at"`
}

// Card returns the card with key, or nil.
func (b *Board) Card(key string) *Card {
	for i := range b.Cards {
		if b.Cards[i].Key == key {
			return &b.Cards[i]
		}
	}
	return nil
}
