package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/iliyamo/sports-booking-backend/internal/model"
)

// StatusSource loads every status row.
type StatusSource interface {
	ListAll(ctx context.Context) ([]*model.Status, error)
}

// Registry caches the chains of all kinds.  Chains are loaded lazily on
// first use and again after Reload.
type Registry struct {
	src StatusSource

	mu     sync.RWMutex
	chains map[string]*Chain
}

func NewRegistry(src StatusSource) *Registry {
	return &Registry{src: src}
}

// Reload rebuilds every chain from the source.  On error the previous
// chains stay in place.
func (r *Registry) Reload(ctx context.Context) error {
	rows, err := r.src.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load statuses: %w", err)
	}
	byKind := map[string][]*model.Status{}
	for _, s := range rows {
		byKind[s.Kind] = append(byKind[s.Kind], s)
	}
	chains := make(map[string]*Chain, len(byKind))
	for kind, list := range byKind {
		c, err := NewChain(kind, list)
		if err != nil {
			return err
		}
		chains[kind] = c
	}
	r.mu.Lock()
	r.chains = chains
	r.mu.Unlock()
	return nil
}

// Chain returns the chain of kind, loading the registry when empty.
func (r *Registry) Chain(ctx context.Context, kind string) (*Chain, error) {
	r.mu.RLock()
	loaded := r.chains != nil
	c := r.chains[kind]
	r.mu.RUnlock()
	if !loaded {
		if err := r.Reload(ctx); err != nil {
			return nil, err
		}
		r.mu.RLock()
		c = r.chains[kind]
		r.mu.RUnlock()
	}
	if c == nil {
		return nil, fmt.Errorf("%w: no %s chain", ErrUnknownStatus, kind)
	}
	return c, nil
}

// Kinds returns the loaded chains keyed by kind.
func (r *Registry) Kinds(ctx context.Context) (map[string]*Chain, error) {
	r.mu.RLock()
	loaded := r.chains != nil
	r.mu.RUnlock()
	if !loaded {
		if err := r.Reload(ctx); err != nil {
			return nil, err
		}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*Chain, len(r.chains))
	for k, v := range r.chains {
		out[k] = v
	}
	return out, nil
}
