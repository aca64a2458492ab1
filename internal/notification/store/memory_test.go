package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"compliancehub/internal/notification/models"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/sentinel"
)

type NotificationStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestNotificationStoreSuite(t *testing.T) {
	suite.Run(t, new(NotificationStoreSuite))
}

func (s *NotificationStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func (s *NotificationStoreSuite) add(entityID id.EntityID, offset time.Duration) *models.Notification {
	n, err := models.New(models.TypeStatusChange, entityID, uuid.New(), "Status changed", "", s.now.Add(offset))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, n))
	return n
}

func (s *NotificationStoreSuite) TestCreateRejectsDuplicateID() {
	n := s.add(id.NewEntityID(), 0)
	s.ErrorIs(s.store.Create(s.ctx, n), sentinel.ErrConflict)
}

func (s *NotificationStoreSuite) TestListFiltersNewestFirst() {
	acme := id.NewEntityID()
	other := id.NewEntityID()
	oldest := s.add(acme, -2*time.Hour)
	newest := s.add(acme, 0)
	s.add(other, -time.Hour)

	s.Run("by entity", func() {
		list, err := s.store.List(s.ctx, models.Filter{EntityID: &acme})
		s.Require().NoError(err)
		s.Require().Len(list, 2)
		s.Equal(newest.ID, list[0].ID)
		s.Equal(oldest.ID, list[1].ID)
	})

	s.Run("unread only", func() {
		_, err := s.store.MarkRead(s.ctx, newest.ID)
		s.Require().NoError(err)

		list, err := s.store.List(s.ctx, models.Filter{EntityID: &acme, UnreadOnly: true})
		s.Require().NoError(err)
		s.Require().Len(list, 1)
		s.Equal(oldest.ID, list[0].ID)
	})

	s.Run("limit", func() {
		list, err := s.store.List(s.ctx, models.Filter{Limit: 1})
		s.Require().NoError(err)
		s.Len(list, 1)
	})
}

func (s *NotificationStoreSuite) TestMarkRead() {
	n := s.add(id.NewEntityID(), 0)

	first, err := s.store.MarkRead(s.ctx, n.ID)
	s.Require().NoError(err)
	s.True(first.Read)

	again, err := s.store.MarkRead(s.ctx, n.ID)
	s.Require().NoError(err)
	s.True(again.Read)

	_, err = s.store.MarkRead(s.ctx, id.NewNotificationID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *NotificationStoreSuite) TestReturnsCopies() {
	n := s.add(id.NewEntityID(), 0)
	found, err := s.store.FindByID(s.ctx, n.ID)
	s.Require().NoError(err)
	found.Read = true

	again, err := s.store.FindByID(s.ctx, n.ID)
	s.Require().NoError(err)
	s.False(again.Read)
}
