package appointment

import (
	"strings"
	"time"

	"clinica/pkg/platform/dates"
	dErrors "clinica/pkg/domain-errors"
)

// Status is the appointment lifecycle.
//
// Invariants:
//   - Creation is only ever into PROGRAMADA
//   - PROGRAMADA may transition to COMPLETADA or CANCELADA
//   - COMPLETADA and CANCELADA are terminal
type Status string

const (
	StatusScheduled Status = "PROGRAMADA"
	StatusCompleted Status = "COMPLETADA"
	StatusCancelled Status = "CANCELADA"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving to target.
func (s Status) CanTransitionTo(target Status) bool {
	return s == StatusScheduled && (target == StatusCompleted || target == StatusCancelled)
}

// Appointment is a scheduled visit. CreatedBy is always a verified-active
// actor id; PatientID always resolved to a PATIENT inside the same
// transaction that wrote the row.
type Appointment struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	DoctorID  string    `json:"doctor_id,omitempty"`
	Date      time.Time `json:"date"`
	Time      string    `json:"time,omitempty"`
	Reason    string    `json:"reason"`
	Status    Status    `json:"status"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRequest is the createAppointment payload. DoctorID is optional; when
// empty the appointment is created unassigned.
type CreateRequest struct {
	PatientID string `json:"patient_id"`
	DoctorID  string `json:"doctor_id,omitempty"`
	Date      string `json:"date"`
	Time      string `json:"time,omitempty"`
	Reason    string `json:"reason"`

	parsedDate time.Time
}

func (r *CreateRequest) Normalize() {
	r.PatientID = strings.TrimSpace(r.PatientID)
	r.DoctorID = strings.TrimSpace(r.DoctorID)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.Reason = strings.TrimSpace(r.Reason)
}

// Validate is the phase-1 structural check; it touches no storage.
func (r *CreateRequest) Validate() error {
	if r.PatientID == "" {
		return dErrors.New(dErrors.CodeValidation, "patient_id is required")
	}
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	d, err := dates.ValidateFuture("date", r.Date)
	if err != nil {
		return err
	}
	r.parsedDate = d
	return nil
}
