package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"clinica/internal/audit"
	"clinica/internal/consultation"
	"clinica/internal/platform/txrunner"
	"clinica/internal/principal"
	"clinica/internal/subject"
	"clinica/pkg/platform/dates"
	"clinica/pkg/testutil"
)

type ConsultationHandlerSuite struct {
	suite.Suite
	router     chi.Router
	store      *consultation.InMemory
	principals *principal.InMemory
}

func TestConsultationHandlerSuite(t *testing.T) {
	suite.Run(t, new(ConsultationHandlerSuite))
}

func (s *ConsultationHandlerSuite) SetupTest() {
	s.store = consultation.NewInMemory()
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
	s.Require().NoError(s.principals.Create(ctx, &principal.Principal{
		ID: "D1", DisplayName: "Dr. Ana Morales", Email: "ana@clinica.local",
		Role: principal.RoleDoctor, Status: principal.StatusActive, Specialty: "cardiologia",
	}))

	subjects := subject.NewResolver()
	subjects.Register(subject.KindPatient, subject.PrincipalLookup(s.principals, principal.RolePatient))
	subjects.Register(subject.KindDoctor, subject.PrincipalLookup(s.principals, principal.RoleDoctor))

	service := consultation.New(s.store, s.principals, subjects, s.principals, txrunner.NewDirect(),
		consultation.WithAuditSink(audit.NewPublisher(audit.NewInMemoryStore())))

	s.router = chi.NewRouter()
	New(service, slog.Default()).Register(s.router)
}

func (s *ConsultationHandlerSuite) futureDate() string {
	return time.Now().AddDate(0, 0, 3).UTC().Format(dates.Layout)
}

func (s *ConsultationHandlerSuite) createConsultation(body map[string]any) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/consultations", body)
	req = testutil.WithActor(req, testutil.NewActor("U1"))
	return testutil.DoRequest(s.router, req)
}

func (s *ConsultationHandlerSuite) TestCreateWithChildrenReturns201() {
	rr := s.createConsultation(map[string]any{
		"patient_id":    "P1",
		"date":          s.futureDate(),
		"type":          "general",
		"doctor_name":   "cardiologia",
		"prescriptions": []string{"ibuprofeno 400mg"},
		"lab_results":   []string{"hemograma completo"},
	})
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)

	cons := testutil.UnmarshalResponse[consultation.Consultation](s.T(), rr)
	s.Equal("P1", cons.PatientID)
	s.Equal("D1", cons.DoctorID)
	s.Equal("U1", cons.CreatedBy)
	s.Len(cons.Prescriptions, 1)
	s.Require().Len(cons.LabResults, 1)
	s.Equal(consultation.LabStatusPending, cons.LabResults[0].Status)
}

func (s *ConsultationHandlerSuite) TestCreateMissingTypeIs400() {
	rr := s.createConsultation(map[string]any{
		"patient_id": "P1",
		"date":       s.futureDate(),
	})
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation")
	testutil.AssertErrorMessage(s.T(), rr, "type is required")
}

func (s *ConsultationHandlerSuite) TestCreateUnknownPatientIs404() {
	rr := s.createConsultation(map[string]any{
		"patient_id": "P404",
		"date":       s.futureDate(),
		"type":       "general",
	})
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	testutil.AssertErrorMessage(s.T(), rr, "P404")
}

func (s *ConsultationHandlerSuite) TestGetRoundTrip() {
	created := testutil.UnmarshalResponse[consultation.Consultation](s.T(), s.createConsultation(map[string]any{
		"patient_id": "P1",
		"date":       s.futureDate(),
		"type":       "general",
	}))

	req := testutil.NewRequest(s.T(), http.MethodGet, "/consultations/"+created.ID)
	req = testutil.WithActor(req, testutil.NewActor("U1"))

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	got := testutil.UnmarshalResponse[consultation.Consultation](s.T(), rr)
	s.Equal(created.ID, got.ID)
}

func (s *ConsultationHandlerSuite) TestLabResultStatusFlow() {
	created := testutil.UnmarshalResponse[consultation.Consultation](s.T(), s.createConsultation(map[string]any{
		"patient_id":  "P1",
		"date":        s.futureDate(),
		"type":        "laboratorio",
		"lab_results": []string{"hemograma completo"},
	}))
	s.Require().Len(created.LabResults, 1)
	labID := created.LabResults[0].ID

	update := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/lab-results/"+labID+"/status", map[string]any{
		"status": "COMPLETADO",
		"result": "hemoglobina 14.2",
	})
	update = testutil.WithActor(update, testutil.NewActor("U1"))

	rr := testutil.DoRequest(s.router, update)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	lab := testutil.UnmarshalResponse[consultation.LabResult](s.T(), rr)
	s.Equal(consultation.LabStatusCompleted, lab.Status)
	s.Equal("hemoglobina 14.2", lab.Result)

	s.Run("terminal lab result is 422", func() {
		again := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/lab-results/"+labID+"/status", map[string]any{
			"status": "CANCELADO",
		})
		again = testutil.WithActor(again, testutil.NewActor("U1"))
		rr := testutil.DoRequest(s.router, again)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, "invalid_state")
	})
}

func (s *ConsultationHandlerSuite) TestListLabResultsByPatient() {
	s.createConsultation(map[string]any{
		"patient_id":  "P1",
		"date":        s.futureDate(),
		"type":        "laboratorio",
		"lab_results": []string{"hemograma completo", "perfil lipidico"},
	})

	req := testutil.NewRequest(s.T(), http.MethodGet, "/patients/P1/lab-results")
	req = testutil.WithActor(req, testutil.NewActor("U1"))

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	results := *testutil.UnmarshalResponse[[]consultation.LabResult](s.T(), rr)
	s.Len(results, 2)

	s.Run("unknown patient lists empty", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/patients/P404/lab-results")
		req = testutil.WithActor(req, testutil.NewActor("U1"))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.Empty(*testutil.UnmarshalResponse[[]consultation.LabResult](s.T(), rr))
	})
}
