package mapview

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"foodfinder/internal/domain"
)

// DatasetLoader is what the registry needs from the application layer.
type DatasetLoader interface {
	Load(ctx context.Context) ([]domain.RestaurantRecord, error)
}

// Registry owns one View per session token and guarantees release: a view
// exists from the first Acquire after login until Drop on logout.
type Registry struct {
	mu         sync.Mutex
	views      map[string]*View
	loader     DatasetLoader
	directions domain.DirectionsClient
}

func NewRegistry(loader DatasetLoader, directions domain.DirectionsClient) *Registry {
	return &Registry{
		views:      make(map[string]*View),
		loader:     loader,
		directions: directions,
	}
}

// Acquire returns the session's view, opening it on first use. A dataset
// load failure is not fatal: the map opens without markers and the
// condition is logged.
func (r *Registry) Acquire(ctx context.Context, token string) *View {
	r.mu.Lock()
	if v, ok := r.views[token]; ok {
		r.mu.Unlock()
		return v
	}
	r.mu.Unlock()

	// Load outside the lock; concurrent first requests may both load, the
	// second one wins nothing but does no harm.
	dataset, err := r.loader.Load(ctx)
	if err != nil {
		log.Error().Err(err).Msg("dataset load failed; map opens without markers")
		dataset = nil
	}
	v := NewView(dataset, r.directions)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.views[token]; ok {
		v.Release()
		return existing
	}
	r.views[token] = v
	return v
}

// Drop releases and forgets the session's view.
func (r *Registry) Drop(token string) {
	r.mu.Lock()
	v, ok := r.views[token]
	delete(r.views, token)
	r.mu.Unlock()
	if ok {
		v.Release()
	}
}
