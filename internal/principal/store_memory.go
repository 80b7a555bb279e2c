package principal

import (
	"context"
	"sort"
	"strings"
	"sync"

	"clinica/pkg/platform/sentinel"
)

// InMemory keeps principals in a map. It backs unit tests and local
// development; semantics mirror the postgres store, including email
// uniqueness.
type InMemory struct {
	mu         sync.RWMutex
	principals map[string]Principal
}

func NewInMemory() *InMemory {
	return &InMemory{principals: make(map[string]Principal)}
}

func (s *InMemory) Create(_ context.Context, p *Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.principals[p.ID]; ok {
		return sentinel.ErrConflict
	}
	for _, existing := range s.principals {
		if strings.EqualFold(existing.Email, p.Email) {
			return sentinel.ErrConflict
		}
	}
	s.principals[p.ID] = *p
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.principals[id]; ok {
		return &p, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindDoctorByMatch(_ context.Context, query string) (*Principal, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, sentinel.ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Deterministic order so a repeated query matches the same doctor.
	ids := make([]string, 0, len(s.principals))
	for id := range s.principals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		p := s.principals[id]
		if p.Role != RoleDoctor || p.Status != StatusActive {
			continue
		}
		if strings.Contains(strings.ToLower(p.DisplayName), query) ||
			strings.Contains(strings.ToLower(p.Specialty), query) ||
			strings.Contains(strings.ToLower(p.ID), query) {
			return &p, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListActiveByRole(_ context.Context, role Role) ([]*Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.principals))
	for id := range s.principals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []*Principal
	for _, id := range ids {
		p := s.principals[id]
		if p.Role == role && p.Status == StatusActive {
			cp := p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// SetStatus flips a principal's lifecycle state. Test helper; production
// status changes go through their own action.
func (s *InMemory) SetStatus(id string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.principals[id]; ok {
		p.Status = status
		s.principals[id] = p
	}
}
