package consultation

import (
	"strings"
	"time"

	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/platform/dates"
)

// LabStatus is the lab result lifecycle.
//
// Invariants:
//   - Creation is only ever into PENDIENTE
//   - PENDIENTE may transition to COMPLETADO or CANCELADO
//   - COMPLETADO and CANCELADO are terminal
type LabStatus string

const (
	LabStatusPending   LabStatus = "PENDIENTE"
	LabStatusCompleted LabStatus = "COMPLETADO"
	LabStatusCancelled LabStatus = "CANCELADO"
)

func (s LabStatus) IsValid() bool {
	switch s {
	case LabStatusPending, LabStatusCompleted, LabStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving to target.
func (s LabStatus) CanTransitionTo(target LabStatus) bool {
	return s == LabStatusPending && (target == LabStatusCompleted || target == LabStatusCancelled)
}

// Consultation is a recorded visit with its child records. DoctorID is a
// best-effort match and may be empty; PatientID is always resolved to a
// PATIENT inside the transaction that wrote the rows.
type Consultation struct {
	ID            string         `json:"id"`
	PatientID     string         `json:"patient_id"`
	DoctorID      string         `json:"doctor_id,omitempty"`
	Date          time.Time      `json:"date"`
	Type          string         `json:"type"`
	Notes         string         `json:"notes,omitempty"`
	CreatedBy     string         `json:"created_by"`
	CreatedAt     time.Time      `json:"created_at"`
	Prescriptions []Prescription `json:"prescriptions,omitempty"`
	Reports       []Report       `json:"reports,omitempty"`
	LabResults    []LabResult    `json:"lab_results,omitempty"`
}

// Prescription is a child row of a consultation, immutable after creation.
type Prescription struct {
	ID             string    `json:"id"`
	ConsultationID string    `json:"consultation_id"`
	Detail         string    `json:"detail"`
	CreatedAt      time.Time `json:"created_at"`
}

// Report is a child row of a consultation, immutable after creation.
type Report struct {
	ID             string    `json:"id"`
	ConsultationID string    `json:"consultation_id"`
	Detail         string    `json:"detail"`
	CreatedAt      time.Time `json:"created_at"`
}

// LabResult starts PENDIENTE with an empty result text. The result text is
// only ever set together with the COMPLETADO transition.
type LabResult struct {
	ID             string    `json:"id"`
	ConsultationID string    `json:"consultation_id,omitempty"`
	PatientID      string    `json:"patient_id"`
	DoctorID       string    `json:"doctor_id,omitempty"`
	TestName       string    `json:"test_name"`
	Status         LabStatus `json:"status"`
	Result         string    `json:"result,omitempty"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateRequest is the createConsultation payload. DoctorName is free text
// matched best-effort against active doctors; no match leaves the
// consultation unassigned rather than failing.
type CreateRequest struct {
	PatientID     string   `json:"patient_id"`
	Date          string   `json:"date"`
	DoctorName    string   `json:"doctor_name,omitempty"`
	Type          string   `json:"type"`
	Notes         string   `json:"notes,omitempty"`
	Prescriptions []string `json:"prescriptions,omitempty"`
	Reports       []string `json:"reports,omitempty"`
	LabResults    []string `json:"lab_results,omitempty"`

	parsedDate time.Time
}

func (r *CreateRequest) Normalize() {
	r.PatientID = strings.TrimSpace(r.PatientID)
	r.Date = strings.TrimSpace(r.Date)
	r.DoctorName = strings.TrimSpace(r.DoctorName)
	r.Type = strings.TrimSpace(r.Type)
	r.Notes = strings.TrimSpace(r.Notes)
	r.Prescriptions = trimAll(r.Prescriptions)
	r.Reports = trimAll(r.Reports)
	r.LabResults = trimAll(r.LabResults)
}

// Validate is the phase-1 structural check; it touches no storage.
func (r *CreateRequest) Validate() error {
	if r.PatientID == "" {
		return dErrors.New(dErrors.CodeValidation, "patient_id is required")
	}
	if r.Type == "" {
		return dErrors.New(dErrors.CodeValidation, "type is required")
	}
	d, err := dates.ValidateFuture("date", r.Date)
	if err != nil {
		return err
	}
	r.parsedDate = d
	return nil
}

// trimAll drops blank entries so a payload of ["", " "] creates no children.
func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
