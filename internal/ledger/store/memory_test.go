package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"compliancehub/internal/ledger/models"
	"compliancehub/internal/platform/lockset"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/sentinel"
)

type LedgerStoreSuite struct {
	suite.Suite
	store  *InMemory
	ctx    context.Context
	now    time.Time
	entity id.EntityID
}

func TestLedgerStoreSuite(t *testing.T) {
	suite.Run(t, new(LedgerStoreSuite))
}

func (s *LedgerStoreSuite) SetupTest() {
	s.store = NewInMemory(lockset.Budget{Attempts: 500, Backoff: time.Millisecond})
	s.ctx = context.Background()
	s.now = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	s.entity = id.NewEntityID()
}

func (s *LedgerStoreSuite) newRecord(typeID id.ComplianceTypeID, period string) *models.ComplianceRecord {
	r, err := models.NewRecord(id.NewComplianceID(), s.entity, typeID, period, s.now.Add(24*time.Hour), nil, s.now)
	s.Require().NoError(err)
	return r
}

func (s *LedgerStoreSuite) TestCreate() {
	s.Run("rejects duplicate entity, type and period", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newRecord("gstr-1", "2025-03")))
		s.ErrorIs(s.store.Create(s.ctx, s.newRecord("gstr-1", "2025-03")), sentinel.ErrConflict)
	})

	s.Run("allows same type for another period", func() {
		s.NoError(s.store.Create(s.ctx, s.newRecord("gstr-1", "2025-04")))
	})
}

func (s *LedgerStoreSuite) TestListings() {
	a := s.newRecord("gstr-1", "2025-03")
	b := s.newRecord("gstr-3b", "2025-03")
	other, err := models.NewRecord(id.NewComplianceID(), id.NewEntityID(), "gstr-1", "2025-03", s.now, nil, s.now)
	s.Require().NoError(err)
	for _, r := range []*models.ComplianceRecord{a, b, other} {
		s.Require().NoError(s.store.Create(s.ctx, r))
	}
	_, err = s.store.Execute(s.ctx, b.ID,
		func(*models.ComplianceRecord) error { return nil },
		func(r *models.ComplianceRecord) { r.ApplyStatus(models.StatusCompleted, s.now) },
	)
	s.Require().NoError(err)

	byEntity, err := s.store.ListByEntity(s.ctx, s.entity)
	s.Require().NoError(err)
	s.Len(byEntity, 2)

	batch, err := s.store.ListByEntities(s.ctx, []id.EntityID{s.entity, other.EntityID})
	s.Require().NoError(err)
	s.Len(batch, 3)

	open, err := s.store.ListOpen(s.ctx)
	s.Require().NoError(err)
	s.Len(open, 2)

	n, err := s.store.CountByType(s.ctx, "gstr-1")
	s.Require().NoError(err)
	s.Equal(2, n)
}

func (s *LedgerStoreSuite) TestExecuteLeavesSnapshotOnValidationFailure() {
	r := s.newRecord("gstr-1", "2025-03")
	s.Require().NoError(s.store.Create(s.ctx, r))

	_, err := s.store.Execute(s.ctx, r.ID,
		func(*models.ComplianceRecord) error { return sentinel.ErrInvalidState },
		func(r *models.ComplianceRecord) { r.ApplyStatus(models.StatusCompleted, s.now) },
	)
	s.ErrorIs(err, sentinel.ErrInvalidState)

	found, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, found.Status)
}

func (s *LedgerStoreSuite) TestConcurrentTransitionsSerialize() {
	r := s.newRecord("gstr-1", "2025-03")
	s.Require().NoError(s.store.Create(s.ctx, r))

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(s.ctx, r.ID,
				func(rec *models.ComplianceRecord) error { return rec.CanTransitionTo(models.StatusCompleted) },
				func(rec *models.ComplianceRecord) { rec.ApplyStatus(models.StatusCompleted, s.now) },
			)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(1, successes)
}
