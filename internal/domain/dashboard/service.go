package dashboard

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hivdash/hivdash/internal/domain/summary"
	"github.com/hivdash/hivdash/internal/platform/statsapi"
)

// Summarizer yields an aggregated summary for a query. It never fails: an
// unavailable upstream is replaced by generated rows.
type Summarizer interface {
	Summary(ctx context.Context, q statsapi.Query) summary.Result
}

type Service struct {
	summaries Summarizer
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(summaries Summarizer, logger zerolog.Logger) *Service {
	return &Service{summaries: summaries, logger: logger, now: time.Now}
}

// Load fetches every metric of f.Category for the selected period and the
// one before it, concurrently, and waits for all of them. Each metric falls
// back on its own, so the only error is cancellation of ctx.
func (s *Service) Load(ctx context.Context, f Filter) (*Board, error) {
	metrics := MetricsFor(f.Category)
	prevFilter := f
	prevFilter.Range = f.Range.Previous()

	n := len(metrics)
	results := make([]summary.Result, 2*n)

	g, gctx := errgroup.WithContext(ctx)
	for i, m := range metrics {
		g.Go(func() error {
			results[i] = s.summaries.Summary(gctx, f.Query(m))
			return gctx.Err()
		})
		g.Go(func() error {
			results[n+i] = s.summaries.Summary(gctx, prevFilter.Query(m))
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load %s dashboard: %w", f.Category, err)
	}

	board := &Board{Filter: f, Previous: prevFilter.Range, LoadedAt: s.now().UTC()}
	prev := &Board{Filter: prevFilter}
	sources := make([]statsapi.Source, 0, n)
	for i, m := range metrics {
		board.Cards = append(board.Cards, countCard(m, results[i]))
		prev.Cards = append(prev.Cards, countCard(m, results[n+i]))
		sources = append(sources, results[i].Source)
	}
	board.Cards = append(board.Cards, derivedCards(f.Category, board)...)
	prev.Cards = append(prev.Cards, derivedCards(f.Category, prev)...)
	for i := range board.Cards {
		var before float64
		if p := prev.Card(board.Cards[i].Key); p != nil {
			before = p.Value
		}
		board.Cards[i].Change, board.Cards[i].ChangeType = trend(board.Cards[i].Value, before)
	}
	board.Source = statsapi.Worst(sources...)

	s.logger.Debug().
		Str("category", string(f.Category)).
		Int("cards", len(board.Cards)).
		Str("source", string(board.Source)).
		Msg("dashboard loaded")
	return board, nil
}

// trend is the percent change from prev to cur, rounded to one decimal.
// With nothing to compare against the change is 0.
func trend(cur, prev float64) (float64, ChangeType) {
	if prev <= 0 {
		return 0, ChangeIncrease
	}
	change := math.Round((cur-prev)/prev*1000) / 10
	if change == 0 {
		return 0, ChangeIncrease
	}
	if change < 0 {
		return change, ChangeDecrease
	}
	return change, ChangeIncrease
}

func countCard(m MetricSpec, r summary.Result) Card {
	return Card{
		Key:            m.Key,
		Title:          m.Title,
		Value:          r.Data.Total,
		FormattedValue: FormatCount(r.Data.Total),
		Unit:           UnitCount,
		Icon:           m.Icon,
		Color:          m.Color,
		Description:    m.Description,
		MalePercent:    r.Data.MalePercent,
		FemalePercent:  r.Data.FemalePercent,
		TopAgeGroup:    r.Data.TopAgeGroup,
		Source:         r.Source,
	}
}

// ratio returns part as a percentage of whole, capped at 100.
func ratio(part, whole float64) float64 {
	if whole <= 0 || part <= 0 {
		return 0
	}
	if part >= whole {
		return 100
	}
	return part / whole * 100
}

func derivedCards(c Category, b *Board) []Card {
	switch c {
	case CategoryHTS:
		tested, positive := b.Card(KeyTested), b.Card(KeyPositive)
		if tested == nil || positive == nil {
			return nil
		}
		pct := ratio(positive.Value, tested.Value)
		return []Card{{
			Key:            KeyPositivity,
			Title:          "Positivity Rate",
			Value:          pct,
			FormattedValue: FormatPercent(pct),
			Unit:           UnitPercent,
			Icon:           "Percent",
			Color:          "#8b5cf6",
			Description:    "Positive results per test conducted",
			Source:         statsapi.Worst(tested.Source, positive.Source),
		}}
	case CategoryCare:
		active, suppressed := b.Card(KeyActive), b.Card(KeySuppressed)
		if active == nil || suppressed == nil {
			return nil
		}
		pct := ratio(suppressed.Value, active.Value)
		band := Band(pct)
		return []Card{{
			Key:            KeySuppressionRate,
			Title:          "Viral Suppression",
			Value:          pct,
			FormattedValue: FormatPercent(pct),
			Unit:           UnitPercent,
			Icon:           "Shield",
			Color:          band.Color(),
			Description:    "Suppressed viral load among active patients",
			Band:           band,
			Source:         statsapi.Worst(active.Source, suppressed.Source),
		}}
	}
	return nil
}
