package store

import (
	"context"
	"sync"

	"compliancehub/internal/ledger/models"
	"compliancehub/internal/platform/lockset"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/sentinel"
)

type naturalKey struct {
	entity id.EntityID
	typ    id.ComplianceTypeID
	period string
}

func keyOf(r *models.ComplianceRecord) naturalKey {
	return naturalKey{entity: r.EntityID, typ: r.TypeID, period: r.Period}
}

// InMemory holds compliance records as immutable snapshots. Execute swaps a
// mutated clone in under the record's lock so readers never see a partial
// transition.
type InMemory struct {
	mu       sync.RWMutex
	records  map[id.ComplianceID]*models.ComplianceRecord
	byEntity map[id.EntityID][]id.ComplianceID
	natural  map[naturalKey]id.ComplianceID
	locks    *lockset.Set
}

func NewInMemory(budget lockset.Budget) *InMemory {
	return &InMemory{
		records:  make(map[id.ComplianceID]*models.ComplianceRecord),
		byEntity: make(map[id.EntityID][]id.ComplianceID),
		natural:  make(map[naturalKey]id.ComplianceID),
		locks:    lockset.New(budget),
	}
}

// Create inserts a record. A duplicate ID or (entity, type, period) returns
// sentinel.ErrConflict.
func (s *InMemory) Create(_ context.Context, r *models.ComplianceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.ID]; ok {
		return sentinel.ErrConflict
	}
	k := keyOf(r)
	if _, ok := s.natural[k]; ok {
		return sentinel.ErrConflict
	}
	s.records[r.ID] = r.Clone()
	s.byEntity[r.EntityID] = append(s.byEntity[r.EntityID], r.ID)
	s.natural[k] = r.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, recordID id.ComplianceID) (*models.ComplianceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[recordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

// ListByEntity returns the entity's records in no particular order.
func (s *InMemory) ListByEntity(_ context.Context, entityID id.EntityID) ([]*models.ComplianceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byEntity[entityID]), nil
}

// ListByEntities returns the records of every listed entity.
func (s *InMemory) ListByEntities(_ context.Context, entityIDs []id.EntityID) ([]*models.ComplianceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ComplianceRecord
	for _, entityID := range entityIDs {
		out = append(out, s.collect(s.byEntity[entityID])...)
	}
	return out, nil
}

func (s *InMemory) ListAll(_ context.Context) ([]*models.ComplianceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.ComplianceRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Clone())
	}
	return out, nil
}

// ListOpen returns records that are not COMPLETED.
func (s *InMemory) ListOpen(_ context.Context) ([]*models.ComplianceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ComplianceRecord
	for _, r := range s.records {
		if r.Status != models.StatusCompleted {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// CountByType reports how many records reference a compliance type.
func (s *InMemory) CountByType(_ context.Context, typeID id.ComplianceTypeID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.records {
		if r.TypeID == typeID {
			n++
		}
	}
	return n, nil
}

// Execute atomically validates and mutates one record.
func (s *InMemory) Execute(ctx context.Context, recordID id.ComplianceID, validate func(*models.ComplianceRecord) error, apply func(*models.ComplianceRecord)) (*models.ComplianceRecord, error) {
	release, err := s.locks.Acquire(ctx, recordID.String())
	if err != nil {
		return nil, err
	}
	defer release()

	s.mu.RLock()
	current, ok := s.records[recordID]
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
	s.records[recordID] = next
	s.mu.Unlock()
	return next.Clone(), nil
}

func (s *InMemory) collect(ids []id.ComplianceID) []*models.ComplianceRecord {
	out := make([]*models.ComplianceRecord, 0, len(ids))
	for _, recordID := range ids {
		out = append(out, s.records[recordID].Clone())
	}
	return out
}
