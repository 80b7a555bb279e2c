// Package txrunner is the transaction executor for domain actions: one
// transaction per action, fixed isolation, bounded timeout, rollback on any
// error, classified errors out.
package txrunner

import (
	"context"
	"database/sql"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	dErrors "clinica/pkg/domain-errors"
	txcontext "clinica/pkg/platform/tx"
)

// DefaultTimeout bounds a domain action that arrives without a deadline.
const DefaultTimeout = 10 * time.Second

// Runner executes a function inside exactly one transaction. The ctx passed
// to fn carries the open transaction; tx-aware stores route their queries
// through it, so every read inside fn observes the action's own writes.
type Runner interface {
	RunInTx(ctx context.Context, action string, fn func(ctx context.Context) error) error
}

// Postgres runs actions on a real database with read-committed isolation.
type Postgres struct {
	db      *sql.DB
	timeout time.Duration
	tracer  trace.Tracer
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{
		db:      db,
		timeout: DefaultTimeout,
		tracer:  otel.Tracer("clinica/txrunner"),
	}
}

func (r *Postgres) RunInTx(ctx context.Context, action string, fn func(ctx context.Context) error) error {
	if r == nil || r.db == nil {
		return dErrors.New(dErrors.CodeUnavailable, "storage is not configured")
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	ctx, span := r.tracer.Start(ctx, action)
	defer span.End()

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return dErrors.Classify(err, action)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return dErrors.Classify(err, action)
	}

	if err := tx.Commit(); err != nil {
		return dErrors.Classify(err, action)
	}
	committed = true
	return nil
}

// Direct runs the function without a database transaction. It backs the
// in-memory stores, whose writes are individually atomic; error
// classification matches the postgres path so services behave identically
// under test.
type Direct struct{}

func NewDirect() Direct { return Direct{} }

func (Direct) RunInTx(ctx context.Context, action string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if err := fn(ctx); err != nil {
		return dErrors.Classify(err, action)
	}
	return nil
}
