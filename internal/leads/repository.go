package leads

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage. It is create-only: the
// intake pipeline never updates or deletes a lead.
type Repository interface {
	Create(ctx context.Context, lead *Lead) (*Lead, error)
}

// Provider hands out a repository for a single request. Implementations own
// the connection lifecycle; a missing setting surfaces as a *ConfigError.
type Provider interface {
	Repository(ctx context.Context) (Repository, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (Repository, error)

func (f ProviderFunc) Repository(ctx context.Context) (Repository, error) {
	return f(ctx)
}

// StaticProvider always returns the same repository.
func StaticProvider(repo Repository) Provider {
	return ProviderFunc(func(context.Context) (Repository, error) {
		return repo, nil
	})
}

// InMemoryRepository is a stub implementation of Repository using in-memory storage
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
	order []string
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
	}
}

// Create stores a copy of the lead under a fresh id
func (r *InMemoryRepository) Create(ctx context.Context, lead *Lead) (*Lead, error) {
	stored := *lead
	stored.ID = uuid.New().String()
	stored.CreatedAt = time.Now().UTC()

	r.mu.Lock()
	r.leads[stored.ID] = &stored
	r.order = append(r.order, stored.ID)
	r.mu.Unlock()

	out := stored
	return &out, nil
}

// GetByID retrieves a lead by ID. GetByID, Count and List are inspection
// helpers for the memory store; the intake itself only creates.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	out := *lead
	return &out, nil
}

// Count returns the number of stored leads.
func (r *InMemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// List returns stored leads in insertion order.
func (r *InMemoryRepository) List() []*Lead {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Lead, 0, len(r.order))
	for _, id := range r.order {
		lead := *r.leads[id]
		out = append(out, &lead)
	}
	return out
}
