package consultation

import (
	"context"
	"sort"
	"sync"

	"clinica/pkg/platform/sentinel"
)

// InMemory mirrors the postgres store for tests and local development.
type InMemory struct {
	mu            sync.RWMutex
	consultations map[string]Consultation
	labResults    map[string]LabResult
}

func NewInMemory() *InMemory {
	return &InMemory{
		consultations: make(map[string]Consultation),
		labResults:    make(map[string]LabResult),
	}
}

func (s *InMemory) CreateConsultation(_ context.Context, c *Consultation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.consultations[c.ID]; ok {
		return sentinel.ErrConflict
	}
	stored := *c
	stored.Prescriptions = append([]Prescription(nil), c.Prescriptions...)
	stored.Reports = append([]Report(nil), c.Reports...)
	stored.LabResults = append([]LabResult(nil), c.LabResults...)
	s.consultations[c.ID] = stored
	for _, lr := range stored.LabResults {
		s.labResults[lr.ID] = lr
	}
	return nil
}

func (s *InMemory) FindConsultationByID(_ context.Context, id string) (*Consultation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.consultations[id]; ok {
		return &c, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindLabResultByID(_ context.Context, id string) (*LabResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if lr, ok := s.labResults[id]; ok {
		return &lr, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) UpdateLabResultStatus(_ context.Context, id string, status LabStatus, result string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lr, ok := s.labResults[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	lr.Status = status
	lr.Result = result
	s.labResults[id] = lr

	if c, ok := s.consultations[lr.ConsultationID]; ok {
		for i := range c.LabResults {
			if c.LabResults[i].ID == id {
				c.LabResults[i] = lr
			}
		}
		s.consultations[lr.ConsultationID] = c
	}
	return nil
}

func (s *InMemory) ListLabResultsByPatient(_ context.Context, patientID string) ([]LabResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []LabResult
	for _, lr := range s.labResults {
		if lr.PatientID == patientID {
			out = append(out, lr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Count reports how many consultations exist. Test helper for
// no-partial-write checks.
func (s *InMemory) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.consultations)
}
