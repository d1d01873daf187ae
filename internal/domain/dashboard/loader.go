package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hivdash/hivdash/pkg/daterange"
)

// ErrStale is returned by Loader.Load when a newer load started before this
// one finished. The result was discarded.
var ErrStale = errors.New("dashboard load superseded by a newer request")

// BoardLoader loads a board for a filter.
type BoardLoader interface {
	Load(ctx context.Context, f Filter) (*Board, error)
}

// View is the state a client renders: the current selection, the last
// committed board and whether a load is in flight.
type View struct {
	Filter     Filter    `json:"filter"`
	Board      *Board    `json:"board,omitempty"`
	Loading    bool      `json:"loading"`
	Error      string    `json:"error,omitempty"`
	Generation uint64    `json:"generation"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Loader serializes dashboard loads for one viewer. Starting a load cancels
// the one in flight, and only the newest generation may commit its board into
// the view, so a slow earlier response can never overwrite a later selection.
type Loader struct {
	boards BoardLoader
	logger zerolog.Logger

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	view   View
}

func NewLoader(boards BoardLoader, logger zerolog.Logger) *Loader {
	return &Loader{
		boards: boards,
		logger: logger,
		view:   View{Filter: DefaultFilter()},
	}
}

// View returns a copy of the current state.
func (l *Loader) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.view
}

// Load starts generation n+1 for f, cancelling any load in flight, and blocks
// until it completes. It returns ErrStale if another Load superseded it.
func (l *Loader) Load(ctx context.Context, f Filter) (*Board, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	gen := l.gen
	l.cancel = cancel
	l.view.Filter = f
	l.view.Loading = true
	l.view.Generation = gen
	l.mu.Unlock()

	board, err := l.boards.Load(ctx, f)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		l.logger.Debug().Uint64("generation", gen).Uint64("current", l.gen).Msg("discarding stale dashboard load")
		return nil, ErrStale
	}
	l.cancel = nil
	l.view.Loading = false
	l.view.UpdatedAt = time.Now().UTC()
	if err != nil {
		l.view.Error = err.Error()
		return nil, err
	}
	l.view.Board = board
	l.view.Error = ""
	return board, nil
}

// SetCategory reloads the dashboard with a new category, keeping the rest of
// the current selection.
func (l *Loader) SetCategory(ctx context.Context, c Category) (*Board, error) {
	f := l.View().Filter
	f.Category = c
	return l.Load(ctx, f)
}

// SelectLocations reloads the dashboard for ids; an empty list selects every
// location.
func (l *Loader) SelectLocations(ctx context.Context, ids []string) (*Board, error) {
	f := l.View().Filter
	f.LocationIDs = ids
	return l.Load(ctx, f)
}

// SetRange reloads the dashboard for a new reporting period.
func (l *Loader) SetRange(ctx context.Context, r daterange.Range) (*Board, error) {
	f := l.View().Filter
	f.Range = r
	return l.Load(ctx, f)
}

// Reload repeats the current selection.
func (l *Loader) Reload(ctx context.Context) (*Board, error) {
	return l.Load(ctx, l.View().Filter)
}
