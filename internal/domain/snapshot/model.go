package snapshot

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hivdash/hivdash/internal/platform/statsapi"
)

// Snapshot is one recorded upstream fetch, or the fallback data served in
// its place.
type Snapshot struct {
	ID        uuid.UUID       `json:"id"`
	Kind      string          `json:"kind"`
	Source    statsapi.Source `json:"source"`
	Query     string          `json:"query"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	FetchedAt time.Time       `json:"fetched_at"`
}
