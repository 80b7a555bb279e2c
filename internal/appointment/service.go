package appointment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"clinica/internal/actor"
	"clinica/internal/audit"
	"clinica/internal/notification"
	"clinica/internal/platform/metrics"
	"clinica/internal/platform/txrunner"
	"clinica/internal/subject"
	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/platform/sentinel"
)

// AuditSink records one entry per committed action.
type AuditSink interface {
	Append(ctx context.Context, entry audit.Entry) error
}

// NotificationSink receives committed events for detached fan-out.
type NotificationSink interface {
	Dispatch(ev notification.Event)
}

// Service owns the appointment domain actions.
type Service struct {
	store    Store
	actors   actor.Lookup
	subjects *subject.Resolver
	tx       txrunner.Runner
	logger   *slog.Logger
	auditor  AuditSink
	notifier NotificationSink
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditSink(a AuditSink) Option {
	return func(s *Service) { s.auditor = a }
}

func WithNotificationSink(n NotificationSink) Option {
	return func(s *Service) { s.notifier = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, actors actor.Lookup, subjects *subject.Resolver, tx txrunner.Runner, opts ...Option) *Service {
	s := &Service{
		store:    store,
		actors:   actors,
		subjects: subjects,
		tx:       tx,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// checkWiring fails fast with a configuration error before any transaction
// is opened, so a partially wired service can never make partial writes.
func (s *Service) checkWiring() error {
	if s.store == nil || s.actors == nil || s.subjects == nil || s.tx == nil {
		return dErrors.New(dErrors.CodeInternal, "appointment service is not fully configured")
	}
	return nil
}

// Create runs the create-appointment action: phase-1 checks, then one
// transaction resolving patient, optional doctor and the actor before the
// insert. Audit and notifications happen strictly after commit.
func (s *Service) Create(ctx context.Context, req *CreateRequest, act *actor.Context) (*Appointment, error) {
	started := time.Now()

	if err := act.Validate(); err != nil {
		s.observe("create_appointment", "rejected", started)
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		s.observe("create_appointment", "rejected", started)
		return nil, err
	}
	if err := s.checkWiring(); err != nil {
		return nil, err
	}

	var (
		appt        *Appointment
		patientName string
	)
	err := s.tx.RunInTx(ctx, "creating appointment", func(txCtx context.Context) error {
		patient, err := s.subjects.Resolve(txCtx, subject.KindPatient, req.PatientID)
		if err != nil {
			return err
		}
		patientName = patient.Name

		if req.DoctorID != "" {
			if _, err := s.subjects.Resolve(txCtx, subject.KindDoctor, req.DoctorID); err != nil {
				return err
			}
		}

		verified, err := actor.Verify(txCtx, s.actors, act)
		if err != nil {
			return err
		}

		appt = &Appointment{
			ID:        uuid.NewString(),
			PatientID: patient.ID,
			DoctorID:  req.DoctorID,
			Date:      req.parsedDate,
			Time:      req.Time,
			Reason:    req.Reason,
			Status:    StatusScheduled,
			CreatedBy: verified.ID,
			CreatedAt: act.Now(),
		}
		return s.store.Create(txCtx, appt)
	})
	if err != nil {
		s.observe("create_appointment", outcomeOf(err), started)
		return nil, err
	}

	s.logAudit(ctx, audit.Entry{
		ActorID:   act.ID,
		Action:    audit.ActionAppointmentCreated,
		Details:   act.DisplayName + " scheduled an appointment for " + patientName + " (" + appt.ID + ")",
		CreatedAt: act.Now(),
	})
	if s.notifier != nil {
		s.notifier.Dispatch(notification.Event{
			Type:        notification.TypeAppointment,
			RecordID:    appt.ID,
			PatientID:   appt.PatientID,
			PatientName: patientName,
			DoctorID:    appt.DoctorID,
			Detail:      appt.Reason,
			When:        act.Now(),
		})
	}
	s.observe("create_appointment", "committed", started)
	return appt, nil
}

// UpdateStatus moves an appointment along its lifecycle. Terminal states are
// immutable; the transition check and the write share one transaction.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status, act *actor.Context) (*Appointment, error) {
	started := time.Now()

	if err := act.Validate(); err != nil {
		s.observe("update_appointment_status", "rejected", started)
		return nil, err
	}
	if !status.IsValid() {
		s.observe("update_appointment_status", "rejected", started)
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown appointment status %q", status)
	}
	if err := s.checkWiring(); err != nil {
		return nil, err
	}

	var updated *Appointment
	err := s.tx.RunInTx(ctx, "updating appointment status", func(txCtx context.Context) error {
		current, err := s.store.FindByID(txCtx, id)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Newf(dErrors.CodeNotFound, "appointment %q not found", id)
			}
			return err
		}
		if !current.Status.CanTransitionTo(status) {
			return dErrors.Newf(dErrors.CodeInvalidState,
				"appointment in status %s cannot change to %s", current.Status, status)
		}
		if _, err := actor.Verify(txCtx, s.actors, act); err != nil {
			return err
		}
		if err := s.store.UpdateStatus(txCtx, id, status); err != nil {
			return err
		}
		current.Status = status
		updated = current
		return nil
	})
	if err != nil {
		s.observe("update_appointment_status", outcomeOf(err), started)
		return nil, err
	}

	s.logAudit(ctx, audit.Entry{
		ActorID:   act.ID,
		Action:    audit.ActionAppointmentStatusChanged,
		Details:   act.DisplayName + " set appointment " + id + " to " + string(status),
		CreatedAt: act.Now(),
	})
	s.observe("update_appointment_status", "committed", started)
	return updated, nil
}

// Get reads one appointment outside any transaction.
func (s *Service) Get(ctx context.Context, id string) (*Appointment, error) {
	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "appointment %q not found", id)
		}
		return nil, dErrors.Classify(err, "finding appointment")
	}
	return a, nil
}

func (s *Service) logAudit(ctx context.Context, entry audit.Entry) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Append(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "audit append failed",
			"action", entry.Action, "error", err)
	}
}

func (s *Service) observe(action, outcome string, started time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveAction(action, outcome, time.Since(started).Seconds())
	}
}

func outcomeOf(err error) string {
	if dErrors.IsRejection(err) {
		return "rejected"
	}
	return "failed"
}
