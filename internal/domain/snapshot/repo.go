package snapshot

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("snapshot not found")

type Repository interface {
	Create(ctx context.Context, s *Snapshot) error
	GetByID(ctx context.Context, id uuid.UUID) (*Snapshot, error)
	// List returns the most recent snapshots first. An empty kind lists all.
	List(ctx context.Context, kind string, limit, offset int) ([]*Snapshot, int, error)
}
