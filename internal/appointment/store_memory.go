package appointment

import (
	"context"
	"sync"

	"clinica/pkg/platform/sentinel"
)

// InMemory mirrors the postgres store for tests and local development.
type InMemory struct {
	mu           sync.RWMutex
	appointments map[string]Appointment
}

func NewInMemory() *InMemory {
	return &InMemory{appointments: make(map[string]Appointment)}
}

func (s *InMemory) Create(_ context.Context, a *Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[a.ID]; ok {
		return sentinel.ErrConflict
	}
	s.appointments[a.ID] = *a
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.appointments[id]; ok {
		return &a, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) UpdateStatus(_ context.Context, id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	a.Status = status
	s.appointments[id] = a
	return nil
}

// Count reports how many rows exist. Test helper for no-partial-write checks.
func (s *InMemory) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.appointments)
}
