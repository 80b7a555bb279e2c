package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"clinica/internal/platform/metrics"
)

// Mirror receives a copy of every appended entry for out-of-band delivery.
// Enqueue must never block; dropped copies are the mirror's business.
type Mirror interface {
	Enqueue(entry Entry)
}

// Publisher appends audit entries after a domain action commits. The append
// itself is synchronous; the optional mirror copy is detached.
type Publisher struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	mirror  Mirror
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

func WithMirror(m Mirror) Option {
	return func(p *Publisher) { p.mirror = m }
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Append writes one entry. Callers invoke it right after their transaction
// committed; a failure here is reported but the committed action stands.
func (p *Publisher) Append(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := p.store.Append(ctx, entry); err != nil {
		return err
	}
	if p.metrics != nil {
		p.metrics.AuditEntriesAppended.Inc()
	}
	if p.mirror != nil {
		p.mirror.Enqueue(entry)
		if p.logger != nil {
			p.logger.DebugContext(ctx, "audit entry mirrored",
				"id", entry.ID, "action", entry.Action)
		}
	}
	return nil
}

// List returns the trail for one actor.
func (p *Publisher) List(ctx context.Context, actorID string) ([]Entry, error) {
	return p.store.ListByActor(ctx, actorID)
}
