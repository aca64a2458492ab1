package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"compliancehub/internal/entity/models"
	"compliancehub/internal/platform/lockset"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/sentinel"
)

type EntityStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestEntityStoreSuite(t *testing.T) {
	suite.Run(t, new(EntityStoreSuite))
}

func (s *EntityStoreSuite) SetupTest() {
	s.store = NewInMemory(lockset.Budget{Attempts: 500, Backoff: time.Millisecond})
	s.ctx = context.Background()
	s.now = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
}

func (s *EntityStoreSuite) newEntity(name string) *models.Entity {
	e, err := models.NewEntity(id.NewEntityID(), models.Profile{Name: name}, s.now)
	s.Require().NoError(err)
	return e
}

func (s *EntityStoreSuite) TestCreateAndLookups() {
	s.Run("finds created entity", func() {
		e := s.newEntity("Acme")
		s.Require().NoError(s.store.Create(s.ctx, e))

		found, err := s.store.FindByID(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Equal("Acme", found.Name)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, id.NewEntityID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate ID", func() {
		e := s.newEntity("Dup")
		s.Require().NoError(s.store.Create(s.ctx, e))
		s.ErrorIs(s.store.Create(s.ctx, e), sentinel.ErrConflict)
	})
}

func (s *EntityStoreSuite) TestListKeepsInsertionOrder() {
	names := []string{"Zeta", "Alpha", "Mu"}
	for _, n := range names {
		s.Require().NoError(s.store.Create(s.ctx, s.newEntity(n)))
	}

	list, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	for i, n := range names {
		s.Equal(n, list[i].Name)
	}
}

func (s *EntityStoreSuite) TestReturnedSnapshotsAreCopies() {
	e := s.newEntity("Acme")
	s.Require().NoError(s.store.Create(s.ctx, e))

	found, err := s.store.FindByID(s.ctx, e.ID)
	s.Require().NoError(err)
	found.Name = "Mutated"

	again, err := s.store.FindByID(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal("Acme", again.Name)
}

func (s *EntityStoreSuite) TestExecute() {
	e := s.newEntity("Acme")
	s.Require().NoError(s.store.Create(s.ctx, e))

	s.Run("validation failure leaves snapshot untouched", func() {
		_, err := s.store.Execute(s.ctx, e.ID,
			func(e *models.Entity) error { return e.CanReactivate() },
			func(e *models.Entity) { e.ApplyReactivation(s.now) },
		)
		s.Require().Error(err)

		found, _ := s.store.FindByID(s.ctx, e.ID)
		s.Equal(models.StatusActive, found.Status)
	})

	s.Run("applies mutation", func() {
		updated, err := s.store.Execute(s.ctx, e.ID,
			func(e *models.Entity) error { return e.CanDeactivate() },
			func(e *models.Entity) { e.ApplyDeactivation(s.now.Add(time.Hour)) },
		)
		s.Require().NoError(err)
		s.Equal(models.StatusInactive, updated.Status)
	})

	s.Run("unknown ID", func() {
		_, err := s.store.Execute(s.ctx, id.NewEntityID(),
			func(*models.Entity) error { return nil },
			func(*models.Entity) {},
		)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *EntityStoreSuite) TestConcurrentExecuteSerializes() {
	e := s.newEntity("Counter")
	s.Require().NoError(s.store.Create(s.ctx, e))

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(s.ctx, e.ID,
				func(*models.Entity) error { return nil },
				func(e *models.Entity) { e.Name += "x" },
			)
			s.NoError(err)
		}()
	}
	wg.Wait()

	found, err := s.store.FindByID(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Len(found.Name, len("Counter")+40)
}
