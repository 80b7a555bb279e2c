package principal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clinica/pkg/platform/sentinel"
	txcontext "clinica/pkg/platform/tx"
)

// PostgresStore persists principals in PostgreSQL. Pure I/O; role and status
// rules live in the services.
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

// q returns the open transaction when one is carried in ctx so lookups made
// inside a domain action observe that action's own writes.
func (s *PostgresStore) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, p *Principal) error {
	query := `
		INSERT INTO principals (id, display_name, email, role, status, specialty, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		p.ID, p.DisplayName, p.Email, p.Role, p.Status, p.Specialty, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create principal: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*Principal, error) {
	query := `
		SELECT id, display_name, email, role, status, specialty, created_at
		FROM principals
		WHERE id = $1
	`
	p, err := scanPrincipal(s.q(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find principal: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) FindDoctorByMatch(ctx context.Context, match string) (*Principal, error) {
	if match == "" {
		return nil, sentinel.ErrNotFound
	}
	query := `
		SELECT id, display_name, email, role, status, specialty, created_at
		FROM principals
		WHERE role = 'DOCTOR'
		  AND status = 'ACTIVE'
		  AND (display_name ILIKE '%' || $1 || '%'
		       OR specialty ILIKE '%' || $1 || '%'
		       OR id ILIKE '%' || $1 || '%')
		ORDER BY id
		LIMIT 1
	`
	p, err := scanPrincipal(s.q(ctx).QueryRowContext(ctx, query, match))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("match doctor: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListActiveByRole(ctx context.Context, role Role) ([]*Principal, error) {
	query := `
		SELECT id, display_name, email, role, status, specialty, created_at
		FROM principals
		WHERE role = $1 AND status = 'ACTIVE'
		ORDER BY id
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("list principals by role: %w", err)
	}
	defer rows.Close()

	var out []*Principal
	for rows.Next() {
		p, err := scanPrincipal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan principal: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrincipal(row rowScanner) (*Principal, error) {
	var p Principal
	if err := row.Scan(&p.ID, &p.DisplayName, &p.Email, &p.Role, &p.Status, &p.Specialty, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
