package store

import (
	"context"
	"sort"
	"sync"

	"compliancehub/internal/catalog/models"
	"compliancehub/internal/platform/lockset"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/sentinel"
)

// InMemory keeps the catalog as immutable snapshots keyed by type ID.
type InMemory struct {
	mu    sync.RWMutex
	types map[id.ComplianceTypeID]*models.ComplianceType
	locks *lockset.Set
}

func NewInMemory(budget lockset.Budget) *InMemory {
	return &InMemory{
		types: make(map[id.ComplianceTypeID]*models.ComplianceType),
		locks: lockset.New(budget),
	}
}

func (s *InMemory) FindByID(_ context.Context, typeID id.ComplianceTypeID) (*models.ComplianceType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.types[typeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return t.Clone(), nil
}

// List returns every definition sorted by ID.
func (s *InMemory) List(_ context.Context) ([]*models.ComplianceType, error) {
	s.mu.RLock()
	out := make([]*models.ComplianceType, 0, len(s.types))
	for _, t := range s.types {
		out = append(out, t.Clone())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Define serializes writers of typeID and stores whatever build returns.
// build receives nil when the ID is new.
func (s *InMemory) Define(ctx context.Context, typeID id.ComplianceTypeID, build func(existing *models.ComplianceType) (*models.ComplianceType, error)) (*models.ComplianceType, error) {
	release, err := s.locks.Acquire(ctx, "catalog:"+typeID.String())
	if err != nil {
		return nil, err
	}
	defer release()

	s.mu.RLock()
	existing := s.types[typeID].Clone()
	s.mu.RUnlock()

	next, err := build(existing)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.types[typeID] = next.Clone()
	s.mu.Unlock()
	return next, nil
}
