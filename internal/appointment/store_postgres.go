package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clinica/pkg/platform/sentinel"
	txcontext "clinica/pkg/platform/tx"
)

// PostgresStore persists appointments. All methods route through the open
// transaction when the context carries one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, a *Appointment) error {
	query := `
		INSERT INTO appointments (id, patient_id, doctor_id, date, time, reason, status, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		a.ID, a.PatientID, nullable(a.DoctorID), a.Date, a.Time, a.Reason,
		a.Status, a.CreatedBy, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*Appointment, error) {
	query := `
		SELECT id, patient_id, COALESCE(doctor_id, ''), date, time, reason, status, created_by, created_at
		FROM appointments
		WHERE id = $1
	`
	var a Appointment
	err := s.q(ctx).QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Time, &a.Reason,
		&a.Status, &a.CreatedBy, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find appointment: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status Status) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE appointments SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// nullable maps "" to NULL for optional foreign keys.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
