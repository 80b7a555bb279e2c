package affiliation

import (
	"strings"
	"time"

	dErrors "clinica/pkg/domain-errors"
)

// Status is shared by companies and affiliations. Both are created ACTIVA.
type Status string

const (
	StatusActive   Status = "ACTIVA"
	StatusInactive Status = "INACTIVA"
)

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// Company is an employer whose employees can be affiliated as patients.
// Names are unique case-insensitively.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Affiliation links a patient to at most one row per company. CompanyID is
// optional; an individual affiliation carries no company.
type Affiliation struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	CompanyID   string    `json:"company_id,omitempty"`
	Plan        string    `json:"plan,omitempty"`
	PaymentType string    `json:"payment_type,omitempty"`
	Amount      float64   `json:"amount"`
	Status      Status    `json:"status"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Receipt records the payment taken when an affiliation is created with a
// positive amount. Written in the same transaction as its affiliation.
type Receipt struct {
	ID            string    `json:"id"`
	AffiliationID string    `json:"affiliation_id"`
	Amount        float64   `json:"amount"`
	PaymentType   string    `json:"payment_type"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateCompanyRequest is the createCompany payload.
type CreateCompanyRequest struct {
	Name string `json:"name"`
}

func (r *CreateCompanyRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r *CreateCompanyRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

// CreateRequest is the createAffiliation payload. CompanyID, Plan,
// PaymentType and Amount are all optional; Status defaults to ACTIVA.
type CreateRequest struct {
	PatientID   string  `json:"patient_id"`
	CompanyID   string  `json:"company_id,omitempty"`
	Plan        string  `json:"plan,omitempty"`
	PaymentType string  `json:"payment_type,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
	Status      Status  `json:"status,omitempty"`
}

func (r *CreateRequest) Normalize() {
	r.PatientID = strings.TrimSpace(r.PatientID)
	r.CompanyID = strings.TrimSpace(r.CompanyID)
	r.Plan = strings.TrimSpace(r.Plan)
	r.PaymentType = strings.TrimSpace(r.PaymentType)
	if r.Status == "" {
		r.Status = StatusActive
	}
}

// Validate is the phase-1 structural check; it touches no storage.
func (r *CreateRequest) Validate() error {
	if r.PatientID == "" {
		return dErrors.New(dErrors.CodeValidation, "patient_id is required")
	}
	if r.Amount < 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must not be negative")
	}
	if !r.Status.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown affiliation status %q", r.Status)
	}
	return nil
}
