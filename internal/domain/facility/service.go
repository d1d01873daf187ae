package facility

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hivdash/hivdash/internal/platform/statsapi"
)

// ErrNotFound is returned when a county or facility id is unknown.
var ErrNotFound = errors.New("not found")

// SnapshotKind labels facility listings in the fetch history.
const SnapshotKind = "facilities"

// Recorder persists a copy of fetched data. Implementations must not block
// the caller on failure.
type Recorder interface {
	Record(ctx context.Context, kind string, source statsapi.Source, query string, payload interface{})
}

// Filter narrows SearchFacilities. Zero fields match everything.
type Filter struct {
	CountyID string
	Type     FacilityType
	Program  string
	Name     string
}

func (f Filter) matches(fac Facility) bool {
	if f.CountyID != "" && CountyID(fac.County) != f.CountyID {
		return false
	}
	if f.Type != "" && fac.Type != f.Type {
		return false
	}
	if f.Program != "" && !strings.EqualFold(fac.Program, f.Program) {
		return false
	}
	if f.Name != "" && !strings.Contains(strings.ToLower(fac.Name), strings.ToLower(f.Name)) {
		return false
	}
	return true
}

type Service struct {
	api      statsapi.Getter
	path     string
	recorder Recorder
	logger   zerolog.Logger
}

func NewService(api statsapi.Getter, path string, logger zerolog.Logger) *Service {
	return &Service{api: api, path: path, logger: logger}
}

// SetRecorder attaches an optional snapshot recorder.
func (s *Service) SetRecorder(r Recorder) {
	s.recorder = r
}

// FetchRaw returns the facility listing from the API, or the built-in
// fallback listing if the call fails for any reason. Fetches cut short by
// ctx are not recorded.
func (s *Service) FetchRaw(ctx context.Context) ([]RawFacility, statsapi.Source) {
	var raw []RawFacility
	if err := s.api.GetJSON(ctx, s.path, statsapi.Query{}, &raw); err != nil {
		if ctx.Err() != nil {
			s.logger.Debug().Err(err).Msg("facility fetch abandoned")
			return FallbackFacilities(), statsapi.SourceFallback
		}
		s.logger.Warn().Err(err).Str("path", s.path).Msg("facility listing unavailable, using fallback")
		raw, source := FallbackFacilities(), statsapi.SourceFallback
		s.record(ctx, source, raw)
		return raw, source
	}
	s.record(ctx, statsapi.SourceLive, raw)
	return raw, statsapi.SourceLive
}

func (s *Service) record(ctx context.Context, source statsapi.Source, raw []RawFacility) {
	if s.recorder != nil {
		s.recorder.Record(ctx, SnapshotKind, source, "", raw)
	}
}

// ListCounties returns the normalized county hierarchy.
func (s *Service) ListCounties(ctx context.Context) ([]County, statsapi.Source) {
	raw, source := s.FetchRaw(ctx)
	return Normalize(raw), source
}

// GetCounty returns the county with the given id.
func (s *Service) GetCounty(ctx context.Context, id string) (*County, statsapi.Source, error) {
	counties, source := s.ListCounties(ctx)
	for i := range counties {
		if counties[i].ID == id {
			return &counties[i], source, nil
		}
	}
	return nil, source, ErrNotFound
}

// GetFacility returns the facility with the given MFL code and its county.
func (s *Service) GetFacility(ctx context.Context, mflCode string) (*Facility, *County, statsapi.Source, error) {
	counties, source := s.ListCounties(ctx)
	for i := range counties {
		for j := range counties[i].Facilities {
			if counties[i].Facilities[j].MFLCode == mflCode {
				return &counties[i].Facilities[j], &counties[i], source, nil
			}
		}
	}
	return nil, nil, source, ErrNotFound
}

// SearchFacilities returns one page of facilities matching f, in county then
// facility name order, and the total number of matches.
func (s *Service) SearchFacilities(ctx context.Context, f Filter, limit, offset int) ([]Facility, int, statsapi.Source) {
	counties, source := s.ListCounties(ctx)
	var matched []Facility
	for _, c := range counties {
		for _, fac := range c.Facilities {
			if f.matches(fac) {
				matched = append(matched, fac)
			}
		}
	}
	total := len(matched)
	if offset >= total {
		return []Facility{}, total, source
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, source
}
