//go:build integration

package appointment_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"clinica/internal/appointment"
	"clinica/internal/principal"
	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/platform/sentinel"
	"clinica/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres   *containers.PostgresContainer
	store      *appointment.PostgresStore
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
	s.store = appointment.NewPostgres(s.postgres.DB)
	s.principals = principal.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "appointments", "principals")
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

func (s *PostgresStoreSuite) newAppointment() *appointment.Appointment {
	return &appointment.Appointment{
		ID:        uuid.NewString(),
		PatientID: "P1",
		DoctorID:  "D1",
		Date:      time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		Time:      "10:30",
		Reason:    "control anual",
		Status:    appointment.StatusScheduled,
		CreatedBy: "U1",
		CreatedAt: time.Now().UTC(),
	}
}

func (s *PostgresStoreSuite) TestCreateAndFindRoundTrip() {
	ctx := context.Background()
	a := s.newAppointment()
	s.Require().NoError(s.store.Create(ctx, a))

	found, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(a.ID, found.ID)
	s.Equal("P1", found.PatientID)
	s.Equal("D1", found.DoctorID)
	s.Equal("2026-09-15", found.Date.Format("2006-01-02"))
	s.Equal("10:30", found.Time)
	s.Equal("control anual", found.Reason)
	s.Equal(appointment.StatusScheduled, found.Status)
	s.Equal("U1", found.CreatedBy)
}

func (s *PostgresStoreSuite) TestUnassignedDoctorRoundTrip() {
	ctx := context.Background()
	a := s.newAppointment()
	a.DoctorID = ""
	s.Require().NoError(s.store.Create(ctx, a))

	found, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Empty(found.DoctorID)
}

func (s *PostgresStoreSuite) TestUpdateStatus() {
	ctx := context.Background()
	a := s.newAppointment()
	s.Require().NoError(s.store.Create(ctx, a))

	s.Require().NoError(s.store.UpdateStatus(ctx, a.ID, appointment.StatusCompleted))

	found, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(appointment.StatusCompleted, found.Status)
}

func (s *PostgresStoreSuite) TestUpdateStatusUnknownID() {
	err := s.store.UpdateStatus(context.Background(), uuid.NewString(), appointment.StatusCancelled)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestFindUnknownID() {
	_, err := s.store.FindByID(context.Background(), uuid.NewString())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUnknownPatientViolatesReference() {
	ctx := context.Background()
	a := s.newAppointment()
	a.PatientID = "P404"

	err := s.store.Create(ctx, a)
	s.Require().Error(err)

	classified := dErrors.Classify(err, "creating appointment")
	s.True(dErrors.HasCode(classified, dErrors.CodeReferentialIntegrity))
}
