package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"clinica/internal/appointment"
	"clinica/internal/audit"
	"clinica/internal/platform/txrunner"
	"clinica/internal/principal"
	"clinica/internal/subject"
	"clinica/pkg/platform/dates"
	"clinica/pkg/testutil"
)

type AppointmentHandlerSuite struct {
	suite.Suite
	router     chi.Router
	store      *appointment.InMemory
	principals *principal.InMemory
}

func TestAppointmentHandlerSuite(t *testing.T) {
	suite.Run(t, new(AppointmentHandlerSuite))
}

func (s *AppointmentHandlerSuite) SetupTest() {
	s.store = appointment.NewInMemory()
	s.principals = principal.NewInMemory()

	ctx := context.Background()
	s.Require().NoError(s.principals.Create(ctx, &principal.Principal{
		ID: "U1", DisplayName: "Maria Lopez", Email: "maria@clinica.local",
		Role: principal.RoleAdmin, Status: principal.StatusActive,
	}))
	s.Require().NoError(s.principals.Create(ctx, &principal.Principal{
		ID: "P1", DisplayName: "Luis Herrera", Email: "luis@example.com",
		Role: principal.RolePatient, Status: principal.StatusActive,
	}))

	subjects := subject.NewResolver()
	subjects.Register(subject.KindPatient, subject.PrincipalLookup(s.principals, principal.RolePatient))
	subjects.Register(subject.KindDoctor, subject.PrincipalLookup(s.principals, principal.RoleDoctor))

	service := appointment.New(s.store, s.principals, subjects, txrunner.NewDirect(),
		appointment.WithAuditSink(audit.NewPublisher(audit.NewInMemoryStore())))

	s.router = chi.NewRouter()
	New(service, slog.Default()).Register(s.router)
}

func (s *AppointmentHandlerSuite) futureDate() string {
	return time.Now().AddDate(0, 0, 3).UTC().Format(dates.Layout)
}

func (s *AppointmentHandlerSuite) TestCreateReturns201() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/appointments", map[string]any{
		"patient_id": "P1",
		"date":       s.futureDate(),
		"reason":     "control anual",
	})
	req = testutil.WithActor(req, testutil.NewActor("U1"))

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)

	appt := testutil.UnmarshalResponse[appointment.Appointment](s.T(), rr)
	s.Equal(appointment.StatusScheduled, appt.Status)
	s.Equal("U1", appt.CreatedBy)
	s.NotEmpty(appt.ID)
}

func (s *AppointmentHandlerSuite) TestCreateValidationIs400() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/appointments", map[string]any{
		"patient_id": "P1",
		"date":       s.futureDate(),
	})
	req = testutil.WithActor(req, testutil.NewActor("U1"))

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation")
	testutil.AssertErrorMessage(s.T(), rr, "reason is required")
}

func (s *AppointmentHandlerSuite) TestCreateUnknownPatientIs404() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/appointments", map[string]any{
		"patient_id": "P404",
		"date":       s.futureDate(),
		"reason":     "control",
	})
	req = testutil.WithActor(req, testutil.NewActor("U1"))

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	testutil.AssertErrorMessage(s.T(), rr, "P404")
}

func (s *AppointmentHandlerSuite) TestMalformedBodyIs400() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/appointments", nil)
	req = testutil.WithActor(req, testutil.NewActor("U1"))

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *AppointmentHandlerSuite) TestStatusUpdateFlow() {
	create := testutil.NewJSONRequest(s.T(), http.MethodPost, "/appointments", map[string]any{
		"patient_id": "P1",
		"date":       s.futureDate(),
		"reason":     "control",
	})
	create = testutil.WithActor(create, testutil.NewActor("U1"))
	created := testutil.UnmarshalResponse[appointment.Appointment](s.T(), testutil.DoRequest(s.router, create))

	s.Run("valid transition returns 200", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPatch,
			"/appointments/"+created.ID+"/status", map[string]any{"status": "COMPLETADA"})
		req = testutil.WithActor(req, testutil.NewActor("U1"))

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		updated := testutil.UnmarshalResponse[appointment.Appointment](s.T(), rr)
		s.Equal(appointment.StatusCompleted, updated.Status)
	})

	s.Run("terminal transition returns 422", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPatch,
			"/appointments/"+created.ID+"/status", map[string]any{"status": "CANCELADA"})
		req = testutil.WithActor(req, testutil.NewActor("U1"))

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, "invalid_state")
	})
}

func (s *AppointmentHandlerSuite) TestGetUnknownIs404() {
	req := testutil.NewRequest(s.T(), http.MethodGet, "/appointments/nope")
	req = testutil.WithActor(req, testutil.NewActor("U1"))

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
}
