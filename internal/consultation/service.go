package consultation

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
	"clinica/internal/principal"
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

// DoctorMatcher is the best-effort fuzzy lookup used to attach a doctor to
// a consultation from free-text input.
type DoctorMatcher interface {
	FindDoctorByMatch(ctx context.Context, query string) (*principal.Principal, error)
}

// Service owns the consultation and lab result domain actions.
type Service struct {
	store    Store
	actors   actor.Lookup
	subjects *subject.Resolver
	doctors  DoctorMatcher
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

func New(store Store, actors actor.Lookup, subjects *subject.Resolver, doctors DoctorMatcher, tx txrunner.Runner, opts ...Option) *Service {
	s := &Service{
		store:    store,
		actors:   actors,
		subjects: subjects,
		doctors:  doctors,
		tx:       tx,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) checkWiring() error {
	if s.store == nil || s.actors == nil || s.subjects == nil || s.tx == nil {
		return dErrors.New(dErrors.CodeInternal, "consultation service is not fully configured")
	}
	return nil
}

// Create runs the create-consultation action. The parent row and every child
// row (prescriptions, reports, lab results) commit in one transaction. The
// doctor lookup is best-effort: an unmatched name leaves the consultation
// unassigned instead of failing the whole action.
func (s *Service) Create(ctx context.Context, req *CreateRequest, act *actor.Context) (*Consultation, error) {
	started := time.Now()

	if err := act.Validate(); err != nil {
		s.observe("create_consultation", "rejected", started)
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		s.observe("create_consultation", "rejected", started)
		return nil, err
	}
	if err := s.checkWiring(); err != nil {
		return nil, err
	}

	var (
		cons        *Consultation
		patientName string
	)
	err := s.tx.RunInTx(ctx, "creating consultation", func(txCtx context.Context) error {
		patient, err := s.subjects.Resolve(txCtx, subject.KindPatient, req.PatientID)
		if err != nil {
			return err
		}
		patientName = patient.Name

		doctorID := s.matchDoctor(txCtx, req.DoctorName)

		verified, err := actor.Verify(txCtx, s.actors, act)
		if err != nil {
			return err
		}

		now := act.Now()
		cons = &Consultation{
			ID:        uuid.NewString(),
			PatientID: patient.ID,
			DoctorID:  doctorID,
			Date:      req.parsedDate,
			Type:      req.Type,
			Notes:     req.Notes,
			CreatedBy: verified.ID,
			CreatedAt: now,
		}
		for _, detail := range req.Prescriptions {
			cons.Prescriptions = append(cons.Prescriptions, Prescription{
				ID:             uuid.NewString(),
				ConsultationID: cons.ID,
				Detail:         detail,
				CreatedAt:      now,
			})
		}
		for _, detail := range req.Reports {
			cons.Reports = append(cons.Reports, Report{
				ID:             uuid.NewString(),
				ConsultationID: cons.ID,
				Detail:         detail,
				CreatedAt:      now,
			})
		}
		for _, testName := range req.LabResults {
			cons.LabResults = append(cons.LabResults, LabResult{
				ID:             uuid.NewString(),
				ConsultationID: cons.ID,
				PatientID:      cons.PatientID,
				DoctorID:       cons.DoctorID,
				TestName:       testName,
				Status:         LabStatusPending,
				CreatedBy:      verified.ID,
				CreatedAt:      now,
			})
		}
		return s.store.CreateConsultation(txCtx, cons)
	})
	if err != nil {
		s.observe("create_consultation", outcomeOf(err), started)
		return nil, err
	}

	s.logAudit(ctx, audit.Entry{
		ActorID:   act.ID,
		Action:    audit.ActionConsultationCreated,
		Details:   act.DisplayName + " recorded a consultation for " + patientName + " (" + cons.ID + ")",
		CreatedAt: act.Now(),
	})
	s.observe("create_consultation", "committed", started)
	return cons, nil
}

// matchDoctor resolves free-text doctor input to an active doctor id. A miss
// is not an error; a storage failure is logged and treated as a miss so the
// consultation still commits.
func (s *Service) matchDoctor(ctx context.Context, name string) string {
	if name == "" || s.doctors == nil {
		return ""
	}
	doc, err := s.doctors.FindDoctorByMatch(ctx, name)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "doctor match lookup failed",
				"query", name, "error", err)
		}
		return ""
	}
	return doc.ID
}

// UpdateLabResultStatus moves a lab result along its lifecycle. The result
// text is only persisted on the COMPLETADO transition, which also fans out
// the lab-result-ready notification after commit.
func (s *Service) UpdateLabResultStatus(ctx context.Context, id string, status LabStatus, result string, act *actor.Context) (*LabResult, error) {
	started := time.Now()

	if err := act.Validate(); err != nil {
		s.observe("update_lab_result_status", "rejected", started)
		return nil, err
	}
	if !status.IsValid() {
		s.observe("update_lab_result_status", "rejected", started)
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown lab result status %q", status)
	}
	if status != LabStatusCompleted {
		result = ""
	}
	if err := s.checkWiring(); err != nil {
		return nil, err
	}

	var (
		updated     *LabResult
		patientName string
	)
	err := s.tx.RunInTx(ctx, "updating lab result status", func(txCtx context.Context) error {
		current, err := s.store.FindLabResultByID(txCtx, id)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Newf(dErrors.CodeNotFound, "lab result %q not found", id)
			}
			return err
		}
		if !current.Status.CanTransitionTo(status) {
			return dErrors.Newf(dErrors.CodeInvalidState,
				"lab result in status %s cannot change to %s", current.Status, status)
		}

		patient, err := s.subjects.Resolve(txCtx, subject.KindPatient, current.PatientID)
		if err != nil {
			return err
		}
		patientName = patient.Name

		if _, err := actor.Verify(txCtx, s.actors, act); err != nil {
			return err
		}
		if err := s.store.UpdateLabResultStatus(txCtx, id, status, result); err != nil {
			return err
		}
		current.Status = status
		current.Result = result
		updated = current
		return nil
	})
	if err != nil {
		s.observe("update_lab_result_status", outcomeOf(err), started)
		return nil, err
	}

	s.logAudit(ctx, audit.Entry{
		ActorID:   act.ID,
		Action:    audit.ActionLabResultStatusChanged,
		Details:   act.DisplayName + " set lab result " + id + " to " + string(status),
		CreatedAt: act.Now(),
	})
	if status == LabStatusCompleted && s.notifier != nil {
		s.notifier.Dispatch(notification.Event{
			Type:        notification.TypeLabResultReady,
			RecordID:    updated.ID,
			PatientID:   updated.PatientID,
			PatientName: patientName,
			DoctorID:    updated.DoctorID,
			Detail:      updated.TestName,
			When:        act.Now(),
		})
	}
	s.observe("update_lab_result_status", "committed", started)
	return updated, nil
}

// Get reads one consultation with its children outside any transaction.
func (s *Service) Get(ctx context.Context, id string) (*Consultation, error) {
	c, err := s.store.FindConsultationByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "consultation %q not found", id)
		}
		return nil, dErrors.Classify(err, "finding consultation")
	}
	return c, nil
}

// ListLabResults reads all lab results for a patient.
func (s *Service) ListLabResults(ctx context.Context, patientID string) ([]LabResult, error) {
	return s.store.ListLabResultsByPatient(ctx, patientID)
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
