//go:build integration

package consultation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"clinica/internal/consultation"
	"clinica/internal/principal"
	"clinica/pkg/platform/sentinel"
	"clinica/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres   *containers.PostgresContainer
	store      *consultation.PostgresStore
	principals *principal.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = consultation.NewPostgres(s.postgres.DB)
	s.principals = principal.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx,
		"lab_results", "prescriptions", "consultation_reports", "consultations", "principals")
	s.Require().NoError(err)

	for _, p := range []*principal.Principal{
		{ID: "U1", DisplayName: "Maria Lopez", Email: "maria@clinica.local", Role: principal.RoleAdmin, Status: principal.StatusActive},
		{ID: "P1", DisplayName: "Luis Herrera", Email: "luis@clinica.local", Role: principal.RolePatient, Status: principal.StatusActive},
		{ID: "D1", DisplayName: "Dr. Ana Morales", Email: "ana@clinica.local", Role: principal.RoleDoctor, Status: principal.StatusActive},
	} {
		p.CreatedAt = time.Now()
		s.Require().NoError(s.principals.Create(ctx, p))
	}
}

func (s *PostgresStoreSuite) newConsultation() *consultation.Consultation {
	now := time.Now().UTC()
	id := uuid.NewString()
	return &consultation.Consultation{
		ID:        id,
		PatientID: "P1",
		DoctorID:  "D1",
		Date:      time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC),
		Type:      "general",
		Notes:     "dolor de cabeza recurrente",
		CreatedBy: "U1",
		CreatedAt: now,
		Prescriptions: []consultation.Prescription{
			{ID: uuid.NewString(), ConsultationID: id, Detail: "ibuprofeno 400mg", CreatedAt: now},
			{ID: uuid.NewString(), ConsultationID: id, Detail: "reposo 48h", CreatedAt: now},
		},
		Reports: []consultation.Report{
			{ID: uuid.NewString(), ConsultationID: id, Detail: "presion arterial normal", CreatedAt: now},
		},
		LabResults: []consultation.LabResult{
			{
				ID:             uuid.NewString(),
				ConsultationID: id,
				PatientID:      "P1",
				DoctorID:       "D1",
				TestName:       "hemograma completo",
				Status:         consultation.LabStatusPending,
				CreatedBy:      "U1",
				CreatedAt:      now,
			},
		},
	}
}

func (s *PostgresStoreSuite) TestCreateWithChildrenRoundTrip() {
	ctx := context.Background()
	c := s.newConsultation()
	s.Require().NoError(s.store.CreateConsultation(ctx, c))

	found, err := s.store.FindConsultationByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal("P1", found.PatientID)
	s.Equal("D1", found.DoctorID)
	s.Equal("general", found.Type)
	s.Len(found.Prescriptions, 2)
	s.Len(found.Reports, 1)
	s.Require().Len(found.LabResults, 1)
	s.Equal("hemograma completo", found.LabResults[0].TestName)
	s.Equal(consultation.LabStatusPending, found.LabResults[0].Status)
}

func (s *PostgresStoreSuite) TestLabResultStatusUpdate() {
	ctx := context.Background()
	c := s.newConsultation()
	s.Require().NoError(s.store.CreateConsultation(ctx, c))
	labID := c.LabResults[0].ID

	err := s.store.UpdateLabResultStatus(ctx, labID, consultation.LabStatusCompleted, "hemoglobina 14.2")
	s.Require().NoError(err)

	lab, err := s.store.FindLabResultByID(ctx, labID)
	s.Require().NoError(err)
	s.Equal(consultation.LabStatusCompleted, lab.Status)
	s.Equal("hemoglobina 14.2", lab.Result)

	// The child read through the parent agrees with the direct read.
	found, err := s.store.FindConsultationByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Require().Len(found.LabResults, 1)
	s.Equal(consultation.LabStatusCompleted, found.LabResults[0].Status)
}

func (s *PostgresStoreSuite) TestListLabResultsByPatient() {
	ctx := context.Background()
	s.Require().NoError(s.store.CreateConsultation(ctx, s.newConsultation()))
	s.Require().NoError(s.store.CreateConsultation(ctx, s.newConsultation()))

	results, err := s.store.ListLabResultsByPatient(ctx, "P1")
	s.Require().NoError(err)
	s.Len(results, 2)

	none, err := s.store.ListLabResultsByPatient(ctx, "P2")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *PostgresStoreSuite) TestNotFound() {
	ctx := context.Background()

	_, err := s.store.FindConsultationByID(ctx, uuid.NewString())
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindLabResultByID(ctx, uuid.NewString())
	s.ErrorIs(err, sentinel.ErrNotFound)

	err = s.store.UpdateLabResultStatus(ctx, uuid.NewString(), consultation.LabStatusCancelled, "")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
