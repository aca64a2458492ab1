package store

import (
	"context"
	"sync"

	"compliancehub/internal/entity/models"
	"compliancehub/internal/platform/lockset"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/sentinel"
)

// InMemory keeps immutable entity snapshots. Writers go through Execute,
// which clones, validates and swaps the snapshot under a per-entity lock.
type InMemory struct {
	mu       sync.RWMutex
	entities map[id.EntityID]*models.Entity
	order    []id.EntityID
	locks    *lockset.Set
}

// NewInMemory creates an empty store.
func NewInMemory(budget lockset.Budget) *InMemory {
	return &InMemory{
		entities: make(map[id.EntityID]*models.Entity),
		locks:    lockset.New(budget),
	}
}

// Create inserts a new entity. Returns sentinel.ErrConflict if the ID exists.
func (s *InMemory) Create(_ context.Context, e *models.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[e.ID]; ok {
		return sentinel.ErrConflict
	}
	s.entities[e.ID] = e.Clone()
	s.order = append(s.order, e.ID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, entityID id.EntityID) (*models.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[entityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return e.Clone(), nil
}

// List returns every entity in insertion order.
func (s *InMemory) List(_ context.Context) ([]*models.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Entity, 0, len(s.order))
	for _, entityID := range s.order {
		out = append(out, s.entities[entityID].Clone())
	}
	return out, nil
}

// Execute atomically validates and mutates one entity.
func (s *InMemory) Execute(ctx context.Context, entityID id.EntityID, validate func(*models.Entity) error, apply func(*models.Entity)) (*models.Entity, error) {
	release, err := s.locks.Acquire(ctx, entityID.String())
	if err != nil {
		return nil, err
	}
	defer release()

	s.mu.RLock()
	current, ok := s.entities[entityID]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	next := current.Clone()
	if err := validate(next); err != nil {
		return nil, err
	}
	apply(next)

	s.mu.Lock()
	s.entities[entityID] = next
	s.mu.Unlock()
	return next.Clone(), nil
}
