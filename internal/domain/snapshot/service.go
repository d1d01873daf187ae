package snapshot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hivdash/hivdash/internal/platform/statsapi"
)

// recordTimeout bounds a single snapshot write.
const recordTimeout = 5 * time.Second

type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Record stores payload as a snapshot of kind. Failures are logged and
// never returned, so recording cannot break a fetch. The write survives
// cancellation of ctx.
func (s *Service) Record(ctx context.Context, kind string, source statsapi.Source, query string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Str("kind", kind).Msg("encode snapshot payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	snap := &Snapshot{
		Kind:      kind,
		Source:    source,
		Query:     query,
		Payload:   raw,
		FetchedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, snap); err != nil {
		s.logger.Error().Err(err).
			Str("kind", kind).
			Str("source", string(source)).
			Msg("record snapshot")
		return
	}
	s.logger.Debug().
		Str("id", snap.ID.String()).
		Str("kind", kind).
		Str("source", string(source)).
		Int("bytes", len(raw)).
		Msg("snapshot recorded")
}

func (s *Service) List(ctx context.Context, kind string, limit, offset int) ([]*Snapshot, int, error) {
	return s.repo.List(ctx, kind, limit, offset)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	return s.repo.GetByID(ctx, id)
}
