package notification

import (
	"context"
	"sync"

	"clinica/pkg/platform/sentinel"
)

// InMemoryStore backs unit tests and local development.
type InMemoryStore struct {
	mu            sync.RWMutex
	notifications []Notification
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Create(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *InMemoryStore) ListByRecipient(_ context.Context, recipientID string) ([]*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Notification
	for i := range s.notifications {
		if s.notifications[i].RecipientID == recipientID {
			cp := s.notifications[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].IsRead = true
			return nil
		}
	}
	return sentinel.ErrNotFound
}

// All returns every stored notification. Test helper.
func (s *InMemoryStore) All() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}
