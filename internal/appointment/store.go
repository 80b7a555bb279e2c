package appointment

import "context"

// Store is pure I/O; lifecycle rules live in the service.
type Store interface {
	Create(ctx context.Context, a *Appointment) error
	FindByID(ctx context.Context, id string) (*Appointment, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}
