package audit

import "time"

// Entry is one immutable line of the audit trail: who did what, in prose a
// reviewer can read without joining tables. Created once, never updated.
type Entry struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	Action    Action    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// Action labels the domain action that produced an entry.
type Action string

const (
	ActionAppointmentCreated       Action = "appointment_created"
	ActionAppointmentStatusChanged Action = "appointment_status_changed"
	ActionConsultationCreated      Action = "consultation_created"
	ActionLabResultStatusChanged   Action = "lab_result_status_changed"
	ActionCompanyCreated           Action = "company_created"
	ActionAffiliationCreated       Action = "affiliation_created"
)
