package affiliation

import "context"

// Store is pure I/O; uniqueness rules are enforced by the backing engine and
// surface as conflict sentinels.
type Store interface {
	CreateCompany(ctx context.Context, c *Company) error
	FindCompanyByID(ctx context.Context, id string) (*Company, error)
	ListCompanies(ctx context.Context) ([]Company, error)

	CreateAffiliation(ctx context.Context, a *Affiliation) error
	FindAffiliationByID(ctx context.Context, id string) (*Affiliation, error)
	ListAffiliationsByPatient(ctx context.Context, patientID string) ([]Affiliation, error)

	CreateReceipt(ctx context.Context, r *Receipt) error
}
