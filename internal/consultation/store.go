package consultation

import "context"

// Store is pure I/O; lifecycle rules live in the service. CreateConsultation
// writes the parent and all children through the same context so the
// transaction runner keeps them atomic.
type Store interface {
	CreateConsultation(ctx context.Context, c *Consultation) error
	FindConsultationByID(ctx context.Context, id string) (*Consultation, error)

	FindLabResultByID(ctx context.Context, id string) (*LabResult, error)
	UpdateLabResultStatus(ctx context.Context, id string, status LabStatus, result string) error
	ListLabResultsByPatient(ctx context.Context, patientID string) ([]LabResult, error)
}
