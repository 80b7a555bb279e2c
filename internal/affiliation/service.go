package affiliation

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

// Service owns the company and affiliation domain actions.
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

func (s *Service) checkWiring() error {
	if s.store == nil || s.actors == nil || s.subjects == nil || s.tx == nil {
		return dErrors.New(dErrors.CodeInternal, "affiliation service is not fully configured")
	}
	return nil
}

// CreateCompany creates an ACTIVA company. Name uniqueness is enforced by
// the store and surfaces as a conflict.
func (s *Service) CreateCompany(ctx context.Context, req *CreateCompanyRequest, act *actor.Context) (*Company, error) {
	started := time.Now()

	if err := act.Validate(); err != nil {
		s.observe("create_company", "rejected", started)
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		s.observe("create_company", "rejected", started)
		return nil, err
	}
	if err := s.checkWiring(); err != nil {
		return nil, err
	}

	var company *Company
	err := s.tx.RunInTx(ctx, "creating company", func(txCtx context.Context) error {
		verified, err := actor.Verify(txCtx, s.actors, act)
		if err != nil {
			return err
		}
		company = &Company{
			ID:        uuid.NewString(),
			Name:      req.Name,
			Status:    StatusActive,
			CreatedBy: verified.ID,
			CreatedAt: act.Now(),
		}
		return s.store.CreateCompany(txCtx, company)
	})
	if err != nil {
		s.observe("create_company", outcomeOf(err), started)
		return nil, err
	}

	s.logAudit(ctx, audit.Entry{
		ActorID:   act.ID,
		Action:    audit.ActionCompanyCreated,
		Details:   act.DisplayName + " created company " + company.Name,
		CreatedAt: act.Now(),
	})
	s.observe("create_company", "committed", started)
	return company, nil
}

// CreateAffiliation affiliates a patient, optionally to an active company,
// and writes the payment receipt in the same transaction when an amount was
// charged. A second affiliation for the same (patient, company) pair is a
// conflict.
func (s *Service) CreateAffiliation(ctx context.Context, req *CreateRequest, act *actor.Context) (*Affiliation, error) {
	started := time.Now()

	if err := act.Validate(); err != nil {
		s.observe("create_affiliation", "rejected", started)
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		s.observe("create_affiliation", "rejected", started)
		return nil, err
	}
	if err := s.checkWiring(); err != nil {
		return nil, err
	}

	var (
		aff         *Affiliation
		patientName string
	)
	err := s.tx.RunInTx(ctx, "creating affiliation", func(txCtx context.Context) error {
		patient, err := s.subjects.Resolve(txCtx, subject.KindPatient, req.PatientID)
		if err != nil {
			return err
		}
		patientName = patient.Name

		if req.CompanyID != "" {
			company, err := s.subjects.Resolve(txCtx, subject.KindCompany, req.CompanyID)
			if err != nil {
				return err
			}
			if !company.Active {
				return dErrors.Newf(dErrors.CodeInvalidState,
					"company %q is not active", req.CompanyID)
			}
		}

		verified, err := actor.Verify(txCtx, s.actors, act)
		if err != nil {
			return err
		}

		now := act.Now()
		aff = &Affiliation{
			ID:          uuid.NewString(),
			PatientID:   patient.ID,
			CompanyID:   req.CompanyID,
			Plan:        req.Plan,
			PaymentType: req.PaymentType,
			Amount:      req.Amount,
			Status:      req.Status,
			CreatedBy:   verified.ID,
			CreatedAt:   now,
		}
		if err := s.store.CreateAffiliation(txCtx, aff); err != nil {
			return err
		}
		if req.Amount > 0 {
			return s.store.CreateReceipt(txCtx, &Receipt{
				ID:            uuid.NewString(),
				AffiliationID: aff.ID,
				Amount:        req.Amount,
				PaymentType:   req.PaymentType,
				CreatedBy:     verified.ID,
				CreatedAt:     now,
			})
		}
		return nil
	})
	if err != nil {
		s.observe("create_affiliation", outcomeOf(err), started)
		return nil, err
	}

	s.logAudit(ctx, audit.Entry{
		ActorID:   act.ID,
		Action:    audit.ActionAffiliationCreated,
		Details:   act.DisplayName + " affiliated " + patientName + " (" + aff.ID + ")",
		CreatedAt: act.Now(),
	})
	if s.notifier != nil {
		s.notifier.Dispatch(notification.Event{
			Type:        notification.TypeAffiliation,
			RecordID:    aff.ID,
			PatientID:   aff.PatientID,
			PatientName: patientName,
			Detail:      aff.Plan,
			When:        act.Now(),
		})
	}
	s.observe("create_affiliation", "committed", started)
	return aff, nil
}

// GetAffiliation reads one affiliation outside any transaction.
func (s *Service) GetAffiliation(ctx context.Context, id string) (*Affiliation, error) {
	a, err := s.store.FindAffiliationByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "affiliation %q not found", id)
		}
		return nil, dErrors.Classify(err, "finding affiliation")
	}
	return a, nil
}

// GetCompany reads one company outside any transaction.
func (s *Service) GetCompany(ctx context.Context, id string) (*Company, error) {
	c, err := s.store.FindCompanyByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "company %q not found", id)
		}
		return nil, dErrors.Classify(err, "finding company")
	}
	return c, nil
}

// ListCompanies reads all companies.
func (s *Service) ListCompanies(ctx context.Context) ([]Company, error) {
	return s.store.ListCompanies(ctx)
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
