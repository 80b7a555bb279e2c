package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"clinica/internal/actor"
	"clinica/internal/audit"
	"clinica/internal/notification"
	"clinica/internal/platform/txrunner"
	"clinica/internal/principal"
	"clinica/internal/subject"
	"clinica/pkg/platform/dates"
	dErrors "clinica/pkg/domain-errors"
)

// recordingSink captures dispatched events without any async machinery.
type recordingSink struct {
	events []notification.Event
}

func (r *recordingSink) Dispatch(ev notification.Event) {
	r.events = append(r.events, ev)
}

// failingAuditSink simulates an audit store outage after commit.
type failingAuditSink struct{ calls int }

func (f *failingAuditSink) Append(context.Context, audit.Entry) error {
	f.calls++
	return errors.New("audit store down")
}

type AppointmentServiceSuite struct {
	suite.Suite
	ctx        context.Context
	store      *InMemory
	principals *principal.InMemory
	auditStore *audit.InMemoryStore
	notifier   *recordingSink
	service    *Service
	logical    time.Time
}

func TestAppointmentServiceSuite(t *testing.T) {
	suite.Run(t, new(AppointmentServiceSuite))
}

func (s *AppointmentServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
	s.principals = principal.NewInMemory()
	s.auditStore = audit.NewInMemoryStore()
	s.notifier = &recordingSink{}
	s.logical = time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)

	subjects := subject.NewResolver()
	subjects.Register(subject.KindPatient, subject.PrincipalLookup(s.principals, principal.RolePatient))
	subjects.Register(subject.KindDoctor, subject.PrincipalLookup(s.principals, principal.RoleDoctor))

	s.service = New(s.store, s.principals, subjects, txrunner.NewDirect(),
		WithAuditSink(audit.NewPublisher(s.auditStore)),
		WithNotificationSink(s.notifier))

	s.seedPrincipal("U1", "Maria Lopez", principal.RoleAdmin, principal.StatusActive)
	s.seedPrincipal("P1", "Luis Herrera", principal.RolePatient, principal.StatusActive)
	s.seedPrincipal("D1", "Dr. Rivas", principal.RoleDoctor, principal.StatusActive)
}

func (s *AppointmentServiceSuite) seedPrincipal(id, name string, role principal.Role, status principal.Status) {
	s.T().Helper()
	s.Require().NoError(s.principals.Create(s.ctx, &principal.Principal{
		ID: id, DisplayName: name, Email: id + "@clinica.local", Role: role, Status: status,
	}))
}

func (s *AppointmentServiceSuite) actor(id string) *actor.Context {
	return &actor.Context{
		ID:          id,
		DisplayName: "Maria Lopez",
		Email:       "maria@clinica.local",
		Role:        principal.RoleAdmin,
		LogicalTime: s.logical,
	}
}

func (s *AppointmentServiceSuite) futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).UTC().Format(dates.Layout)
}

func (s *AppointmentServiceSuite) validRequest() *CreateRequest {
	return &CreateRequest{
		PatientID: "P1",
		DoctorID:  "D1",
		Date:      s.futureDate(3),
		Time:      "10:30",
		Reason:    "control anual",
	}
}

func (s *AppointmentServiceSuite) TestCreateCommitsScheduledAppointment() {
	appt, err := s.service.Create(s.ctx, s.validRequest(), s.actor("U1"))
	s.Require().NoError(err)

	s.Equal(StatusScheduled, appt.Status)
	s.Equal("U1", appt.CreatedBy)
	s.Equal("P1", appt.PatientID)
	s.Equal("D1", appt.DoctorID)
	s.Equal(s.logical, appt.CreatedAt)
	s.NotEmpty(appt.ID)

	stored, err := s.store.FindByID(s.ctx, appt.ID)
	s.Require().NoError(err)
	s.Equal(StatusScheduled, stored.Status)

	s.Run("audit entry is appended", func() {
		entries := s.auditStore.All()
		s.Require().Len(entries, 1)
		s.Equal(audit.ActionAppointmentCreated, entries[0].Action)
		s.Equal("U1", entries[0].ActorID)
		s.Contains(entries[0].Details, "Luis Herrera")
	})

	s.Run("notification event is dispatched", func() {
		s.Require().Len(s.notifier.events, 1)
		ev := s.notifier.events[0]
		s.Equal(notification.TypeAppointment, ev.Type)
		s.Equal(appt.ID, ev.RecordID)
		s.Equal("D1", ev.DoctorID)
	})
}

func (s *AppointmentServiceSuite) TestCreateWithoutDoctorIsUnassigned() {
	req := s.validRequest()
	req.DoctorID = ""

	appt, err := s.service.Create(s.ctx, req, s.actor("U1"))
	s.Require().NoError(err)
	s.Empty(appt.DoctorID)
}

func (s *AppointmentServiceSuite) TestCreateRejectsPastDate() {
	req := s.validRequest()
	req.Date = time.Now().AddDate(0, 0, -2).UTC().Format(dates.Layout)

	_, err := s.service.Create(s.ctx, req, s.actor("U1"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Equal("date must be in the future", dErrors.Message(err))
	s.Zero(s.store.Count())
}

func (s *AppointmentServiceSuite) TestCreateRejectsMissingFields() {
	s.Run("missing patient", func() {
		req := s.validRequest()
		req.PatientID = "  "
		_, err := s.service.Create(s.ctx, req, s.actor("U1"))
		s.Require().Error(err)
		s.Equal("patient_id is required", dErrors.Message(err))
	})

	s.Run("missing reason", func() {
		req := s.validRequest()
		req.Reason = ""
		_, err := s.service.Create(s.ctx, req, s.actor("U1"))
		s.Require().Error(err)
		s.Equal("reason is required", dErrors.Message(err))
	})

	s.Zero(s.store.Count())
}

func (s *AppointmentServiceSuite) TestCreateRejectsUnknownPatient() {
	req := s.validRequest()
	req.PatientID = "P404"

	_, err := s.service.Create(s.ctx, req, s.actor("U1"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Equal(`patient "P404" not found`, dErrors.Message(err))
	s.Zero(s.store.Count())
	s.Empty(s.notifier.events)
}

func (s *AppointmentServiceSuite) TestCreateRejectsWrongRoleDoctor() {
	req := s.validRequest()
	req.DoctorID = "P1"

	_, err := s.service.Create(s.ctx, req, s.actor("U1"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeRoleMismatch))
	s.Equal("Luis Herrera is not a doctor", dErrors.Message(err))
	s.Zero(s.store.Count())
}

func (s *AppointmentServiceSuite) TestCreateRejectsUnknownActorEvenWithValidPatient() {
	_, err := s.service.Create(s.ctx, s.validRequest(), s.actor("ghost"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Equal(`acting user "ghost" not found`, dErrors.Message(err))
	s.Zero(s.store.Count())
}

func (s *AppointmentServiceSuite) TestCreateRejectsInactiveActor() {
	s.seedPrincipal("U9", "Pedro Gil", principal.RoleSecretary, principal.StatusSuspended)

	_, err := s.service.Create(s.ctx, s.validRequest(), s.actor("U9"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInactiveActor))
	s.Equal("acting user Pedro Gil is not active (status: SUSPENDED)", dErrors.Message(err))
	s.Zero(s.store.Count())
}

func (s *AppointmentServiceSuite) TestAuditFailureDoesNotFailTheAction() {
	failing := &failingAuditSink{}
	svc := New(s.store, s.principals, s.mustResolver(), txrunner.NewDirect(),
		WithAuditSink(failing),
		WithNotificationSink(s.notifier))

	appt, err := svc.Create(s.ctx, s.validRequest(), s.actor("U1"))
	s.Require().NoError(err)
	s.NotNil(appt)
	s.Equal(1, failing.calls)
}

func (s *AppointmentServiceSuite) mustResolver() *subject.Resolver {
	r := subject.NewResolver()
	r.Register(subject.KindPatient, subject.PrincipalLookup(s.principals, principal.RolePatient))
	r.Register(subject.KindDoctor, subject.PrincipalLookup(s.principals, principal.RoleDoctor))
	return r
}

func (s *AppointmentServiceSuite) TestUnwiredServiceFailsFastWithoutWrites() {
	svc := New(nil, nil, nil, nil)
	_, err := svc.Create(s.ctx, s.validRequest(), s.actor("U1"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *AppointmentServiceSuite) TestUpdateStatusTransitions() {
	appt, err := s.service.Create(s.ctx, s.validRequest(), s.actor("U1"))
	s.Require().NoError(err)

	s.Run("scheduled completes", func() {
		updated, err := s.service.UpdateStatus(s.ctx, appt.ID, StatusCompleted, s.actor("U1"))
		s.Require().NoError(err)
		s.Equal(StatusCompleted, updated.Status)
	})

	s.Run("terminal state is immutable", func() {
		_, err := s.service.UpdateStatus(s.ctx, appt.ID, StatusCancelled, s.actor("U1"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
		s.Equal("appointment in status COMPLETADA cannot change to CANCELADA", dErrors.Message(err))
	})

	s.Run("unknown id", func() {
		_, err := s.service.UpdateStatus(s.ctx, "nope", StatusCancelled, s.actor("U1"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal(`appointment "nope" not found`, dErrors.Message(err))
	})

	s.Run("unknown status value", func() {
		_, err := s.service.UpdateStatus(s.ctx, appt.ID, Status("PENDIENTE"), s.actor("U1"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// downStore simulates a storage outage on reads.
type downStore struct {
	*InMemory
}

func (d *downStore) FindByID(context.Context, string) (*Appointment, error) {
	return nil, errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
}

func (s *AppointmentServiceSuite) TestStorageOutageIsNotReportedAsMissing() {
	subjects := subject.NewResolver()
	subjects.Register(subject.KindPatient, subject.PrincipalLookup(s.principals, principal.RolePatient))
	service := New(&downStore{InMemory: s.store}, s.principals, subjects, txrunner.NewDirect())

	s.Run("get", func() {
		_, err := service.Get(s.ctx, "A1")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConnectionFailure))
		s.False(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("status update", func() {
		_, err := service.UpdateStatus(s.ctx, "A1", StatusCompleted, s.actor("U1"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConnectionFailure))
	})
}

func (s *AppointmentServiceSuite) TestGet() {
	appt, err := s.service.Create(s.ctx, s.validRequest(), s.actor("U1"))
	s.Require().NoError(err)

	found, err := s.service.Get(s.ctx, appt.ID)
	s.Require().NoError(err)
	s.Equal(appt.ID, found.ID)

	_, err = s.service.Get(s.ctx, "missing")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
