package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"clinica/internal/platform/metrics"
	strutil "clinica/pkg/platform/strings"
)

// Dispatcher turns committed domain events into persisted notifications.
//
// Dispatch is a detached hand-off: it never blocks the caller, and no later
// failure (a failing store, a full buffer, a down cache) ever reaches the
// action that triggered the event. The dispatcher runs after commit, so
// there is nothing left to roll back.
type Dispatcher struct {
	store   Store
	admins  AdminSource
	logger  *slog.Logger
	metrics *metrics.Metrics

	inbox chan Event
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

const dispatchBuffer = 128

// perEventTimeout bounds how long one fan-out may spend on storage. The
// dispatcher uses its own context: the triggering request may be long gone.
const perEventTimeout = 5 * time.Second

type DispatcherOption func(*Dispatcher)

func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = logger }
}

func WithMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

func NewDispatcher(store Store, admins AdminSource, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		store:  store,
		admins: admins,
		logger: slog.Default(),
		inbox:  make(chan Event, dispatchBuffer),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	go d.run()
	return d
}

// Dispatch schedules fan-out for a committed event and returns immediately.
// On a full buffer the event is dropped with a warning; the triggering
// action already succeeded and stays successful.
func (d *Dispatcher) Dispatch(ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	select {
	case d.inbox <- ev:
	default:
		d.logger.Warn("notification buffer full, event dropped",
			"type", ev.Type, "record_id", ev.RecordID)
		if d.metrics != nil {
			d.metrics.NotificationFailures.Inc()
		}
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.inbox {
		d.process(ev)
	}
}

func (d *Dispatcher) process(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), perEventTimeout)
	defer cancel()

	var admins []string
	if d.admins != nil {
		var err error
		admins, err = d.admins.ListActiveAdmins(ctx)
		if err != nil {
			d.logger.Warn("admin recipient lookup failed, fan-out reduced",
				"type", ev.Type, "error", err)
		}
		// A cached list may carry blanks or repeats; each admin gets one copy.
		admins = strutil.DedupeAndTrim(admins)
	}

	for _, n := range fanOut(ev, admins) {
		n := n
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if err := d.store.Create(ctx, &n); err != nil {
			d.logger.Warn("notification write failed",
				"type", n.Type, "recipient", n.RecipientID, "error", err)
			if d.metrics != nil {
				d.metrics.NotificationFailures.Inc()
			}
			continue
		}
		if d.metrics != nil {
			d.metrics.NotificationsDispatched.WithLabelValues(string(ev.Type)).Inc()
		}
	}
}

// Close drains pending events and stops the worker. Dispatch calls made
// after Close are no-ops.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.inbox)
	d.mu.Unlock()
	<-d.done
}
