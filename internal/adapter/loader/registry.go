package loader

import (
	"context"
	"fmt"
	"healthcare-assistant/internal/domain/entity"
	"healthcare-assistant/internal/domain/repository"
	"healthcare-assistant/internal/logging"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Factory builds the backend handle for one model.
type Factory func(ctx context.Context) (repository.Backend, error)

// Registry owns the process-wide backend handles. Each model is built on
// first use and reused afterwards; failed loads are not remembered.
type Registry struct {
	mu        sync.RWMutex // guards handles only
	factories map[entity.ModelChoice]Factory
	handles   map[entity.ModelChoice]repository.Backend
	inflight  singleflight.Group
}

func NewRegistry(factories map[entity.ModelChoice]Factory) *Registry {
	return &Registry{
		factories: factories,
		handles:   make(map[entity.ModelChoice]repository.Backend, len(factories)),
	}
}

func (r *Registry) cached(m entity.ModelChoice) (repository.Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[m]
	return h, ok
}

// Load returns the cached handle for m, building and probing it on first call.
// Concurrent first loads of one model share a single build; loads of other
// models are not held up by it.
func (r *Registry) Load(ctx context.Context, m entity.ModelChoice) (repository.Backend, error) {
	if h, ok := r.cached(m); ok {
		return h, nil
	}
	factory, ok := r.factories[m]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no backend configured", entity.ErrUnknownModel, m)
	}

	v, err, _ := r.inflight.Do(m.String(), func() (any, error) {
		if h, ok := r.cached(m); ok {
			return h, nil
		}
		h, err := factory(ctx)
		if err != nil {
			return nil, err
		}
		if p, ok := h.(repository.Prober); ok {
			if err := p.Probe(ctx); err != nil {
				return nil, fmt.Errorf("probe: %w", err)
			}
		}

		r.mu.Lock()
		r.handles[m] = h
		r.mu.Unlock()
		logging.Info("loader", "backend loaded", "model", m)
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(repository.Backend), nil
}

// Loaded reports which models currently hold a handle.
func (r *Registry) Loaded() map[entity.ModelChoice]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[entity.ModelChoice]bool, len(entity.ModelChoices))
	for _, m := range entity.ModelChoices {
		_, out[m] = r.handles[m]
	}
	return out
}

// Warm loads every configured model, logging failures instead of returning them.
func (r *Registry) Warm(ctx context.Context) int {
	loaded := 0
	for _, m := range entity.ModelChoices {
		if _, err := r.Load(ctx, m); err != nil {
			logging.Error("warmer", "backend warm-up failed", "model", m, "error", err)
			continue
		}
		loaded++
	}
	return loaded
}
