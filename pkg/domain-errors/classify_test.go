package dErrors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/suite"

	"clinica/pkg/platform/sentinel"
)

type ClassifySuite struct {
	suite.Suite
}

func TestClassifySuite(t *testing.T) {
	suite.Run(t, new(ClassifySuite))
}

func (s *ClassifySuite) TestNilPassesThrough() {
	s.NoError(Classify(nil, "creating appointment"))
}

func (s *ClassifySuite) TestCodedErrorsPassThroughUnchanged() {
	original := Newf(CodeNotFound, "patient %q not found", "P9")
	classified := Classify(original, "creating appointment")
	s.Same(original, classified)
	s.Equal(`patient "P9" not found`, Message(classified))
}

func (s *ClassifySuite) TestSentinelMapping() {
	cases := []struct {
		sentinel error
		code     Code
	}{
		{sentinel.ErrConflict, CodeConflict},
		{sentinel.ErrNotFound, CodeNotFound},
		{sentinel.ErrInvalidState, CodeInvalidState},
		{sentinel.ErrUnavailable, CodeUnavailable},
	}
	for _, tc := range cases {
		err := Classify(fmt.Errorf("store: %w", tc.sentinel), "creating affiliation")
		s.Equal(tc.code, CodeOf(err), "sentinel %v", tc.sentinel)
		s.ErrorIs(err, tc.sentinel)
	}
}

func (s *ClassifySuite) TestPostgresConstraintCodes() {
	cases := []struct {
		pgCode string
		code   Code
	}{
		{"23505", CodeConflict},
		{"23503", CodeReferentialIntegrity},
		{"23502", CodeValidation},
		{"23514", CodeValidation},
		{"42501", CodeForbidden},
		{"57014", CodeTimeout},
		{"08006", CodeConnectionFailure},
	}
	for _, tc := range cases {
		raw := fmt.Errorf("exec: %w", &pgconn.PgError{Code: tc.pgCode, Message: "constraint"})
		s.Equal(tc.code, CodeOf(Classify(raw, "creating affiliation")), "pg code %s", tc.pgCode)
	}
}

func (s *ClassifySuite) TestNoRowsMapsToNotFound() {
	err := Classify(sql.ErrNoRows, "updating appointment status")
	s.Equal(CodeNotFound, CodeOf(err))
}

func (s *ClassifySuite) TestDeadlineMapsToTimeout() {
	err := Classify(context.DeadlineExceeded, "creating consultation")
	s.Equal(CodeTimeout, CodeOf(err))
	s.Equal("operation timed out", Message(err))
}

func (s *ClassifySuite) TestMessageSniffing() {
	s.Run("connection refused", func() {
		err := Classify(errors.New("dial tcp 127.0.0.1:5432: connection refused"), "creating company")
		s.Equal(CodeConnectionFailure, CodeOf(err))
	})
	s.Run("permission denied", func() {
		err := Classify(errors.New("permission denied for table appointments"), "creating company")
		s.Equal(CodeForbidden, CodeOf(err))
	})
}

func (s *ClassifySuite) TestFallbackKeepsActionContext() {
	err := Classify(errors.New("boom"), "creating appointment")
	s.Equal(CodeInternal, CodeOf(err))
	s.Equal("error while creating appointment: boom", Message(err))
}
