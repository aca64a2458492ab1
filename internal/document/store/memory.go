package store

import (
	"context"
	"sync"

	"compliancehub/internal/document/models"
	"compliancehub/internal/platform/lockset"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/sentinel"
)

// InMemory keeps document snapshots. History slices are copied on every
// read and write so callers never share backing arrays with the store.
type InMemory struct {
	mu       sync.RWMutex
	docs     map[id.DocumentID]*models.Document
	byEntity map[id.EntityID][]id.DocumentID
	locks    *lockset.Set
}

func NewInMemory(budget lockset.Budget) *InMemory {
	return &InMemory{
		docs:     make(map[id.DocumentID]*models.Document),
		byEntity: make(map[id.EntityID][]id.DocumentID),
		locks:    lockset.New(budget),
	}
}

func (s *InMemory) Create(_ context.Context, d *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[d.ID]; ok {
		return sentinel.ErrConflict
	}
	s.docs[d.ID] = d.Clone()
	s.byEntity[d.EntityID] = append(s.byEntity[d.EntityID], d.ID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, docID id.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[docID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return d.Clone(), nil
}

// ListByEntity returns the entity's documents in upload order.
func (s *InMemory) ListByEntity(_ context.Context, entityID id.EntityID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byEntity[entityID]
	out := make([]*models.Document, 0, len(ids))
	for _, docID := range ids {
		out = append(out, s.docs[docID].Clone())
	}
	return out, nil
}

func (s *InMemory) ListByCompliance(_ context.Context, complianceID id.ComplianceID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Document
	for _, d := range s.docs {
		if d.ComplianceID != nil && *d.ComplianceID == complianceID {
			out = append(out, d.Clone())
		}
	}
	sortByUpload(out)
	return out, nil
}

func (s *InMemory) ListAll(_ context.Context) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, d.Clone())
	}
	sortByUpload(out)
	return out, nil
}

// Execute atomically validates and mutates one document.
func (s *InMemory) Execute(ctx context.Context, docID id.DocumentID, validate func(*models.Document) error, apply func(*models.Document)) (*models.Document, error) {
	release, err := s.locks.Acquire(ctx, docID.String())
	if err != nil {
		return nil, err
	}
	defer release()

	s.mu.RLock()
	current, ok := s.docs[docID]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	next := current.Clone()
	if err := validate(next); err != nil {
		return nil, err
	}
	apply(next)
	if len(next.History) < len(current.History) {
		return nil, sentinel.ErrInvalidState
	}

	s.mu.Lock()
	s.docs[docID] = next
	s.mu.Unlock()
	return next.Clone(), nil
}
