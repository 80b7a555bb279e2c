package principal

import "time"

// Role distinguishes the kinds of people the clinic tracks. Subject
// resolution checks the resolved role against the expected one, so a
// reference that exists but points at the wrong kind of principal is
// rejected instead of silently linked.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleDoctor    Role = "DOCTOR"
	RoleSecretary Role = "SECRETARY"
	RolePatient   Role = "PATIENT"
	RolePromoter  Role = "PROMOTER"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleSecretary, RolePatient, RolePromoter:
		return true
	}
	return false
}

// Status is the principal lifecycle. Only ACTIVE principals may act as write
// attributors or be linked as subjects where an active check applies.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusSuspended Status = "SUSPENDED"
)

// Principal is a person known to the clinic: patient, doctor, admin,
// secretary or promoter. The ID is the public identifier callers supply in
// payloads (record number / cedula), not a generated surrogate.
type Principal struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	Status      Status    `json:"status"`
	Specialty   string    `json:"specialty,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (p *Principal) IsActive() bool {
	return p.Status == StatusActive
}
