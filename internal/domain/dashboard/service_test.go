package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hivdash/hivdash/internal/domain/summary"
	"github.com/hivdash/hivdash/internal/platform/statsapi"
	"github.com/hivdash/hivdash/pkg/daterange"
)

// -- Stub summarizer --

type stubSummarizer struct {
	mu       sync.Mutex
	totals   map[string]float64
	byPeriod map[string]float64 // "start/modality", overrides totals
	fallback map[string]bool
	queries  []statsapi.Query
	inflight int
	peak     int
	delay    time.Duration
}

func (s *stubSummarizer) Summary(ctx context.Context, q statsapi.Query) summary.Result {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.inflight++
	if s.inflight > s.peak {
		s.peak = s.inflight
	}
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	source := statsapi.SourceLive
	if s.fallback[q.Modality] {
		source = statsapi.SourceFallback
	}
	total := s.totals[q.Modality]
	if v, ok := s.byPeriod[q.Start.Format(daterange.Layout)+"/"+q.Modality]; ok {
		total = v
	}
	return summary.Result{
		Query:  q.String(),
		Source: source,
		Data: summary.FacilitySummaryData{
			Total:         total,
			MalePercent:   40,
			FemalePercent: 60,
			TopAgeGroup:   "25-29",
		},
	}
}

func newTestService(s *stubSummarizer) *Service {
	svc := NewService(s, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC) }
	return svc
}

func TestService_Load_HTS(t *testing.T) {
	stub := &stubSummarizer{totals: map[string]float64{"HTS_TST": 12847, "HTS_POS": 1247, "HTS_RETEST": 456}}
	svc := newTestService(stub)

	f := Filter{Category: CategoryHTS, LocationIDs: []string{"20261"}, Range: daterange.Default()}
	board, err := svc.Load(context.Background(), f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(board.Cards) != len(HTSMetrics)+1 {
		t.Fatalf("expected %d cards, got %d", len(HTSMetrics)+1, len(board.Cards))
	}
	for i, m := range HTSMetrics {
		if board.Cards[i].Key != m.Key {
			t.Errorf("card %d: expected %s, got %s", i, m.Key, board.Cards[i].Key)
		}
	}

	tested := board.Card(KeyTested)
	if tested.FormattedValue != "12,847" {
		t.Errorf("expected 12,847, got %s", tested.FormattedValue)
	}
	if tested.MalePercent != 40 || tested.FemalePercent != 60 || tested.TopAgeGroup != "25-29" {
		t.Errorf("expected gender split and top age group carried over, got %+v", tested)
	}

	pos := board.Card(KeyPositivity)
	if pos == nil {
		t.Fatal("expected positivity card")
	}
	if pos.Unit != UnitPercent || pos.FormattedValue != "9.7%" {
		t.Errorf("expected 9.7%% positivity, got %s (%s)", pos.FormattedValue, pos.Unit)
	}
	if board.Source != statsapi.SourceLive {
		t.Errorf("expected live board, got %s", board.Source)
	}
	if !board.LoadedAt.Equal(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected loaded_at %s", board.LoadedAt)
	}

	if len(stub.queries) != 2*len(HTSMetrics) {
		t.Fatalf("expected one query per metric and period, got %d", len(stub.queries))
	}
	periods := map[string]int{}
	for _, q := range stub.queries {
		if q.ReportDept != "HTS" || len(q.LocationIDs) != 1 {
			t.Errorf("unexpected query %+v", q)
		}
		periods[q.Start.Format(daterange.Layout)+".."+q.End.Format(daterange.Layout)]++
	}
	if periods["2025-05-01..2025-05-31"] != len(HTSMetrics) || periods["2025-04-01..2025-04-30"] != len(HTSMetrics) {
		t.Errorf("expected May and April queries per metric, got %v", periods)
	}
	if board.Previous.Label != "April 2025" {
		t.Errorf("expected previous period April 2025, got %q", board.Previous.Label)
	}
	if tested.Change != 0 || tested.ChangeType != ChangeIncrease {
		t.Errorf("expected flat trend for equal totals, got %v %s", tested.Change, tested.ChangeType)
	}
}

func TestService_Load_Trend(t *testing.T) {
	stub := &stubSummarizer{byPeriod: map[string]float64{
		"2025-05-01/HTS_TST":    1100,
		"2025-04-01/HTS_TST":    1000,
		"2025-05-01/HTS_POS":    90,
		"2025-04-01/HTS_POS":    100,
		"2025-05-01/HTS_RETEST": 40,
		"2025-04-01/HTS_RETEST": 0,
	}}
	board, err := newTestService(stub).Load(context.Background(), DefaultFilter())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		key    string
		change float64
		kind   ChangeType
	}{
		{KeyTested, 10, ChangeIncrease},
		{KeyPositive, -10, ChangeDecrease},
		// nothing to compare against in April
		{KeyRetest, 0, ChangeIncrease},
		// positivity 8.2% against 10%
		{KeyPositivity, -18.2, ChangeDecrease},
	}
	for _, tt := range tests {
		c := board.Card(tt.key)
		if c == nil {
			t.Fatalf("missing card %s", tt.key)
		}
		if c.Change != tt.change || c.ChangeType != tt.kind {
			t.Errorf("%s: expected %v %s, got %v %s", tt.key, tt.change, tt.kind, c.Change, c.ChangeType)
		}
	}
}

func TestTrend(t *testing.T) {
	tests := []struct {
		cur, prev float64
		change    float64
		kind      ChangeType
	}{
		{120, 100, 20, ChangeIncrease},
		{75, 100, -25, ChangeDecrease},
		{100, 100, 0, ChangeIncrease},
		{10, 0, 0, ChangeIncrease},
		{0, 0, 0, ChangeIncrease},
		{1000, 1001, -0.1, ChangeDecrease},
		{100000, 100001, 0, ChangeIncrease},
	}
	for _, tt := range tests {
		change, kind := trend(tt.cur, tt.prev)
		if change != tt.change || kind != tt.kind {
			t.Errorf("trend(%v, %v) = %v %s, want %v %s", tt.cur, tt.prev, change, kind, tt.change, tt.kind)
		}
	}
}

func TestService_Load_Care(t *testing.T) {
	stub := &stubSummarizer{
		totals:   map[string]float64{"TX_CURR": 8945, "TX_NEW": 234, "TX_PVLS": 8265, "TX_ML": 78},
		fallback: map[string]bool{"TX_ML": true},
	}
	board, err := newTestService(stub).Load(context.Background(), Filter{Category: CategoryCare, Range: daterange.Default()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(board.Cards) != len(CareMetrics)+1 {
		t.Fatalf("expected %d cards, got %d", len(CareMetrics)+1, len(board.Cards))
	}

	rate := board.Card(KeySuppressionRate)
	if rate == nil {
		t.Fatal("expected suppression rate card")
	}
	if rate.FormattedValue != "92.4%" || rate.Band != BandGood {
		t.Errorf("expected 92.4%% good, got %s %s", rate.FormattedValue, rate.Band)
	}
	if rate.Source != statsapi.SourceLive {
		t.Errorf("derived card should only depend on its inputs, got %s", rate.Source)
	}

	if board.Card(KeyLTFU).Source != statsapi.SourceFallback {
		t.Error("expected LTFU card to report fallback")
	}
	if board.Source != statsapi.SourceFallback {
		t.Errorf("a single fallback metric should mark the board, got %s", board.Source)
	}
}

func TestService_Load_Concurrent(t *testing.T) {
	stub := &stubSummarizer{totals: map[string]float64{}, delay: 50 * time.Millisecond}
	if _, err := newTestService(stub).Load(context.Background(), Filter{Category: CategoryCare}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.peak < 2 {
		t.Errorf("expected metrics to load concurrently, peak in flight was %d", stub.peak)
	}
}

func TestService_Load_ZeroTested(t *testing.T) {
	stub := &stubSummarizer{totals: map[string]float64{"HTS_POS": 5}}
	board, err := newTestService(stub).Load(context.Background(), DefaultFilter())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos := board.Card(KeyPositivity); pos.Value != 0 || pos.FormattedValue != "0%" {
		t.Errorf("expected 0%% positivity when nothing was tested, got %v (%s)", pos.Value, pos.FormattedValue)
	}
}

func TestService_Load_Cancelled(t *testing.T) {
	stub := &stubSummarizer{totals: map[string]float64{}, delay: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestService(stub).Load(ctx, DefaultFilter())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"hts", CategoryHTS, false},
		{"HTS", CategoryHTS, false},
		{"care", CategoryCare, false},
		{"care-treatment", CategoryCare, false},
		{"pmtct", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCategory(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseCategory(%q) = %q, %v", tt.in, got, err)
		}
	}
}
