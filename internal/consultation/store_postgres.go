package consultation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clinica/pkg/platform/sentinel"
	txcontext "clinica/pkg/platform/tx"
)

// PostgresStore persists consultations and their child rows. All methods
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

func (s *PostgresStore) CreateConsultation(ctx context.Context, c *Consultation) error {
	q := s.q(ctx)
	_, err := q.ExecContext(ctx, `
		INSERT INTO consultations (id, patient_id, doctor_id, date, type, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ID, c.PatientID, nullable(c.DoctorID), c.Date, c.Type, c.Notes, c.CreatedBy, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create consultation: %w", err)
	}

	for _, p := range c.Prescriptions {
		_, err := q.ExecContext(ctx, `
			INSERT INTO prescriptions (id, consultation_id, detail, created_at)
			VALUES ($1, $2, $3, $4)
		`, p.ID, p.ConsultationID, p.Detail, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("create prescription: %w", err)
		}
	}
	for _, r := range c.Reports {
		_, err := q.ExecContext(ctx, `
			INSERT INTO consultation_reports (id, consultation_id, detail, created_at)
			VALUES ($1, $2, $3, $4)
		`, r.ID, r.ConsultationID, r.Detail, r.CreatedAt)
		if err != nil {
			return fmt.Errorf("create consultation report: %w", err)
		}
	}
	for _, lr := range c.LabResults {
		_, err := q.ExecContext(ctx, `
			INSERT INTO lab_results (id, consultation_id, patient_id, doctor_id, test_name, status, result, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, lr.ID, lr.ConsultationID, lr.PatientID, nullable(lr.DoctorID),
			lr.TestName, lr.Status, lr.Result, lr.CreatedBy, lr.CreatedAt)
		if err != nil {
			return fmt.Errorf("create lab result: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) FindConsultationByID(ctx context.Context, id string) (*Consultation, error) {
	q := s.q(ctx)
	var c Consultation
	err := q.QueryRowContext(ctx, `
		SELECT id, patient_id, COALESCE(doctor_id, ''), date, type, notes, created_by, created_at
		FROM consultations
		WHERE id = $1
	`, id).Scan(&c.ID, &c.PatientID, &c.DoctorID, &c.Date, &c.Type, &c.Notes,
		&c.CreatedBy, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find consultation: %w", err)
	}

	if err := s.loadChildren(ctx, q, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) loadChildren(ctx context.Context, q querier, c *Consultation) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, consultation_id, detail, created_at
		FROM prescriptions WHERE consultation_id = $1 ORDER BY id
	`, c.ID)
	if err != nil {
		return fmt.Errorf("list prescriptions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p Prescription
		if err := rows.Scan(&p.ID, &p.ConsultationID, &p.Detail, &p.CreatedAt); err != nil {
			return fmt.Errorf("scan prescription: %w", err)
		}
		c.Prescriptions = append(c.Prescriptions, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list prescriptions: %w", err)
	}

	rows, err = q.QueryContext(ctx, `
		SELECT id, consultation_id, detail, created_at
		FROM consultation_reports WHERE consultation_id = $1 ORDER BY id
	`, c.ID)
	if err != nil {
		return fmt.Errorf("list consultation reports: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var r Report
		if err := rows.Scan(&r.ID, &r.ConsultationID, &r.Detail, &r.CreatedAt); err != nil {
			return fmt.Errorf("scan consultation report: %w", err)
		}
		c.Reports = append(c.Reports, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list consultation reports: %w", err)
	}

	rows, err = q.QueryContext(ctx, `
		SELECT id, COALESCE(consultation_id::text, ''), patient_id, COALESCE(doctor_id, ''),
		       test_name, status, result, created_by, created_at
		FROM lab_results WHERE consultation_id = $1 ORDER BY id
	`, c.ID)
	if err != nil {
		return fmt.Errorf("list lab results: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		lr, err := scanLabResult(rows)
		if err != nil {
			return err
		}
		c.LabResults = append(c.LabResults, *lr)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list lab results: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindLabResultByID(ctx context.Context, id string) (*LabResult, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, COALESCE(consultation_id::text, ''), patient_id, COALESCE(doctor_id, ''),
		       test_name, status, result, created_by, created_at
		FROM lab_results
		WHERE id = $1
	`, id)
	lr, err := scanLabResult(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return lr, nil
}

func (s *PostgresStore) UpdateLabResultStatus(ctx context.Context, id string, status LabStatus, result string) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE lab_results SET status = $2, result = $3 WHERE id = $1`,
		id, status, result)
	if err != nil {
		return fmt.Errorf("update lab result status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update lab result status: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListLabResultsByPatient(ctx context.Context, patientID string) ([]LabResult, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT id, COALESCE(consultation_id::text, ''), patient_id, COALESCE(doctor_id, ''),
		       test_name, status, result, created_by, created_at
		FROM lab_results
		WHERE patient_id = $1
		ORDER BY id
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list lab results: %w", err)
	}
	defer rows.Close()

	var out []LabResult
	for rows.Next() {
		lr, err := scanLabResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *lr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list lab results: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLabResult(row rowScanner) (*LabResult, error) {
	var lr LabResult
	err := row.Scan(&lr.ID, &lr.ConsultationID, &lr.PatientID, &lr.DoctorID,
		&lr.TestName, &lr.Status, &lr.Result, &lr.CreatedBy, &lr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan lab result: %w", err)
	}
	return &lr, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
