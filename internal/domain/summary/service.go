package summary

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/hivdash/hivdash/internal/platform/statsapi"
)

// SnapshotKind labels summary fetches in the fetch history.
const SnapshotKind = "summary"

// Recorder persists a copy of fetched rows.
type Recorder interface {
	Record(ctx context.Context, kind string, source statsapi.Source, query string, payload interface{})
}

// Result is an aggregated summary together with where its rows came from.
type Result struct {
	Query     string              `json:"query"`
	Rows      int                 `json:"rows"`
	Source    statsapi.Source     `json:"source"`
	Data      FacilitySummaryData `json:"data"`
	Breakdown []AgeGroupTotal     `json:"age_breakdown"`
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

// Indicators fetches the rows for q, substituting MockIndicators when the
// call fails for any reason. A fetch abandoned because ctx ended still
// yields generated rows but is neither logged as a failure nor recorded.
func (s *Service) Indicators(ctx context.Context, q statsapi.Query) ([]Indicator, statsapi.Source) {
	var rows []Indicator
	source := statsapi.SourceLive
	if err := s.api.GetJSON(ctx, s.path, q, &rows); err != nil {
		rows, source = MockIndicators(q), statsapi.SourceFallback
		if ctx.Err() != nil {
			s.logger.Debug().Err(err).Str("query", q.String()).Msg("summary fetch abandoned")
			return rows, source
		}
		s.logger.Warn().Err(err).
			Str("path", s.path).
			Str("query", q.String()).
			Msg("summary unavailable, using generated data")
	}
	if s.recorder != nil {
		s.recorder.Record(ctx, SnapshotKind, source, q.String(), rows)
	}
	return rows, source
}

// Summary fetches and aggregates the rows for q.
func (s *Service) Summary(ctx context.Context, q statsapi.Query) Result {
	rows, source := s.Indicators(ctx, q)
	data := Aggregate(rows)
	return Result{
		Query:     q.String(),
		Rows:      len(rows),
		Source:    source,
		Data:      data,
		Breakdown: AgeGroupBreakdown(data),
	}
}
