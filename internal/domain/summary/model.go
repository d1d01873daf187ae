package summary

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Indicator is one gender/age disaggregated row of the summary endpoint.
type Indicator struct {
	IndicatorID   Code   `json:"indicatorid"`
	IndicatorName string `json:"indicator_name"`
	Gender        string `json:"disagrgender"`
	AgeGroup      string `json:"disagragegroup"`
	LocationID    Code   `json:"locationid"`
	TotalValue    Number `json:"total_value"`
}

// Number decodes JSON numbers, numeric strings and null. Blank or
// non-numeric strings decode as zero.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*n = 0
			return nil
		}
		*n = Number(f)
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// Code decodes identifiers that the API sends either as numbers or strings.
type Code string

func (c *Code) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Code(s)
		return nil
	}
	*c = Code(b)
	return nil
}

// AgeGroupTotal is one row of an age breakdown.
type AgeGroupTotal struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Percent int     `json:"percent"`
}

// FacilitySummaryData is the aggregate of a set of indicator rows.
// Percentages are derived from the totals when the value is built and are
// never set independently.
type FacilitySummaryData struct {
	Total            float64            `json:"total"`
	Male             float64            `json:"male"`
	Female           float64            `json:"female"`
	MalePercent      int                `json:"male_percent"`
	FemalePercent    int                `json:"female_percent"`
	AgeGroups        map[string]float64 `json:"age_groups"`
	AgeGroupOrder    []string           `json:"age_group_order"`
	TopAgeGroup      string             `json:"top_age_group"`
	TopAgeGroupValue float64            `json:"top_age_group_value"`
}
