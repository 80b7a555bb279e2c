package affiliation

import (
	"context"
	"sort"
	"strings"
	"sync"

	"clinica/pkg/platform/sentinel"
)

// InMemory mirrors the postgres store for tests and local development. The
// uniqueness rules the database enforces with indexes are replicated here so
// both backends surface the same conflict sentinel.
type InMemory struct {
	mu           sync.RWMutex
	companies    map[string]Company
	affiliations map[string]Affiliation
	receipts     map[string]Receipt
}

func NewInMemory() *InMemory {
	return &InMemory{
		companies:    make(map[string]Company),
		affiliations: make(map[string]Affiliation),
		receipts:     make(map[string]Receipt),
	}
}

func (s *InMemory) CreateCompany(_ context.Context, c *Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.companies {
		if strings.EqualFold(existing.Name, c.Name) {
			return sentinel.ErrConflict
		}
	}
	s.companies[c.ID] = *c
	return nil
}

func (s *InMemory) FindCompanyByID(_ context.Context, id string) (*Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.companies[id]; ok {
		return &c, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListCompanies(_ context.Context) ([]Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Company, 0, len(s.companies))
	for _, c := range s.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemory) CreateAffiliation(_ context.Context, a *Affiliation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.affiliations {
		if existing.PatientID == a.PatientID && existing.CompanyID == a.CompanyID {
			return sentinel.ErrConflict
		}
	}
	s.affiliations[a.ID] = *a
	return nil
}

func (s *InMemory) FindAffiliationByID(_ context.Context, id string) (*Affiliation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.affiliations[id]; ok {
		return &a, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListAffiliationsByPatient(_ context.Context, patientID string) ([]Affiliation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Affiliation
	for _, a := range s.affiliations {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) CreateReceipt(_ context.Context, r *Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.receipts[r.ID]; ok {
		return sentinel.ErrConflict
	}
	s.receipts[r.ID] = *r
	return nil
}

// ReceiptsFor returns the receipts written for one affiliation. Test helper.
func (s *InMemory) ReceiptsFor(affiliationID string) []Receipt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Receipt
	for _, r := range s.receipts {
		if r.AffiliationID == affiliationID {
			out = append(out, r)
		}
	}
	return out
}

// CountAffiliations reports how many rows exist. Test helper for
// no-partial-write checks.
func (s *InMemory) CountAffiliations() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.affiliations)
}
