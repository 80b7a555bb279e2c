package affiliation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clinica/pkg/platform/sentinel"
	txcontext "clinica/pkg/platform/tx"
)

// PostgresStore persists companies, affiliations and receipts. All methods
// route through the open transaction when the context carries one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) CreateCompany(ctx context.Context, c *Company) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO companies (id, name, status, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.Name, c.Status, c.CreatedBy, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create company: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindCompanyByID(ctx context.Context, id string) (*Company, error) {
	var c Company
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, name, status, created_by, created_at
		FROM companies
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Status, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find company: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) ListCompanies(ctx context.Context) ([]Company, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT id, name, status, created_by, created_at
		FROM companies
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var out []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Status, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CreateAffiliation(ctx context.Context, a *Affiliation) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO affiliations (id, patient_id, company_id, plan, payment_type, amount, status, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, a.ID, a.PatientID, nullable(a.CompanyID), a.Plan, a.PaymentType,
		a.Amount, a.Status, a.CreatedBy, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create affiliation: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindAffiliationByID(ctx context.Context, id string) (*Affiliation, error) {
	var a Affiliation
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, patient_id, COALESCE(company_id::text, ''), plan, payment_type, amount, status, created_by, created_at
		FROM affiliations
		WHERE id = $1
	`, id).Scan(&a.ID, &a.PatientID, &a.CompanyID, &a.Plan, &a.PaymentType,
		&a.Amount, &a.Status, &a.CreatedBy, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find affiliation: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) ListAffiliationsByPatient(ctx context.Context, patientID string) ([]Affiliation, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT id, patient_id, COALESCE(company_id::text, ''), plan, payment_type, amount, status, created_by, created_at
		FROM affiliations
		WHERE patient_id = $1
		ORDER BY id
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list affiliations: %w", err)
	}
	defer rows.Close()

	var out []Affiliation
	for rows.Next() {
		var a Affiliation
		if err := rows.Scan(&a.ID, &a.PatientID, &a.CompanyID, &a.Plan, &a.PaymentType,
			&a.Amount, &a.Status, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan affiliation: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list affiliations: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CreateReceipt(ctx context.Context, r *Receipt) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO receipts (id, affiliation_id, amount, payment_type, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.ID, r.AffiliationID, r.Amount, r.PaymentType, r.CreatedBy, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("create receipt: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
