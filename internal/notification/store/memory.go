package store

import (
	"context"
	"sync"

	"compliancehub/internal/notification/models"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/sentinel"
)

// InMemory keeps notification snapshots. Marking read swaps in a fresh copy.
type InMemory struct {
	mu    sync.RWMutex
	items map[id.NotificationID]*models.Notification
}

func NewInMemory() *InMemory {
	return &InMemory{items: make(map[id.NotificationID]*models.Notification)}
}

func (s *InMemory) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[n.ID]; ok {
		return sentinel.ErrConflict
	}
	s.items[n.ID] = n.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, notificationID id.NotificationID) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.items[notificationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return n.Clone(), nil
}

// List returns matching notifications newest first.
func (s *InMemory) List(_ context.Context, filter models.Filter) ([]*models.Notification, error) {
	s.mu.RLock()
	out := make([]*models.Notification, 0)
	for _, n := range s.items {
		if filter.Matches(n) {
			out = append(out, n.Clone())
		}
	}
	s.mu.RUnlock()

	models.SortNewestFirst(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// MarkRead sets the read flag. Marking twice is a no-op.
func (s *InMemory) MarkRead(_ context.Context, notificationID id.NotificationID) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.items[notificationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !n.Read {
		next := n.Clone()
		next.Read = true
		s.items[notificationID] = next
		n = next
	}
	return n.Clone(), nil
}
