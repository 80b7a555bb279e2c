package principal

import "context"

// Store is interface-driven so domain services stay testable against the
// in-memory implementation while production runs on postgres.
type Store interface {
	Create(ctx context.Context, p *Principal) error
	FindByID(ctx context.Context, id string) (*Principal, error)
	// FindDoctorByMatch returns the first ACTIVE doctor whose name, specialty
	// or id contains the query, case-insensitively. Best effort: a miss
	// returns sentinel.ErrNotFound and callers treat it as "no doctor".
	FindDoctorByMatch(ctx context.Context, query string) (*Principal, error)
	// ListActiveByRole returns every ACTIVE principal with the given role.
	// The notification dispatcher uses it to fan out to admins.
	ListActiveByRole(ctx context.Context, role Role) ([]*Principal, error)
}
