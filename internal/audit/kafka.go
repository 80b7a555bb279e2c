package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"clinica/internal/platform/config"
	"clinica/internal/platform/metrics"
)

// KafkaMirror copies audit entries onto a Kafka topic for downstream
// consumers (compliance archive, SIEM). It is strictly best-effort: Enqueue
// drops on a full buffer and produce failures are logged, never propagated.
// The postgres audit_log remains the source of truth either way.
type KafkaMirror struct {
	client  *kgo.Client
	topic   string
	inbox   chan Entry
	logger  *slog.Logger
	metrics *metrics.Metrics
}

const mirrorBuffer = 256

// NewKafkaMirror connects to the brokers and makes sure the topic exists.
// Returns nil when no brokers are configured.
func NewKafkaMirror(cfg config.Kafka, logger *slog.Logger, m *metrics.Metrics) (*KafkaMirror, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.AuditTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	adm := kadm.NewClient(client)
	if _, err := adm.CreateTopic(context.Background(), 1, 1, nil, cfg.AuditTopic); err != nil {
		// Topic may already exist; anything else surfaces on first produce.
		logger.Debug("audit topic creation skipped", "topic", cfg.AuditTopic, "reason", err)
	}

	return &KafkaMirror{
		client:  client,
		topic:   cfg.AuditTopic,
		inbox:   make(chan Entry, mirrorBuffer),
		logger:  logger,
		metrics: m,
	}, nil
}

// Enqueue hands an entry to the mirror without blocking the action path.
func (k *KafkaMirror) Enqueue(entry Entry) {
	if k == nil {
		return
	}
	select {
	case k.inbox <- entry:
	default:
		if k.metrics != nil {
			k.metrics.AuditMirrorDropped.Inc()
		}
		k.logger.Warn("audit mirror buffer full, entry dropped", "entry_id", entry.ID)
	}
}

// Run drains the inbox until ctx is cancelled. Runs in its own goroutine.
func (k *KafkaMirror) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-k.inbox:
			k.produce(ctx, entry)
		}
	}
}

func (k *KafkaMirror) produce(ctx context.Context, entry Entry) {
	payload, err := json.Marshal(entry)
	if err != nil {
		k.logger.Error("marshal audit entry for mirror", "error", err)
		return
	}
	record := &kgo.Record{Key: []byte(entry.ActorID), Value: payload}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		k.logger.Warn("audit mirror produce failed", "entry_id", entry.ID, "error", err)
	}
}

// Close flushes pending produces and releases the client.
func (k *KafkaMirror) Close() {
	if k == nil {
		return
	}
	k.client.Close()
}
