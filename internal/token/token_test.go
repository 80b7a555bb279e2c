package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"clinica/internal/principal"
	dErrors "clinica/pkg/domain-errors"
)

type TokenSuite struct {
	suite.Suite
	service *Service
}

func TestTokenSuite(t *testing.T) {
	suite.Run(t, new(TokenSuite))
}

func (s *TokenSuite) SetupTest() {
	s.service = NewService("unit-test-signing-key")
}

func (s *TokenSuite) principal() *principal.Principal {
	return &principal.Principal{
		ID:          "U1",
		DisplayName: "Maria Lopez",
		Email:       "maria@clinica.local",
		Role:        principal.RoleAdmin,
		Status:      principal.StatusActive,
	}
}

func (s *TokenSuite) TestRoundTrip() {
	raw, err := s.service.Generate(s.principal(), "America/Panama", time.Hour)
	s.Require().NoError(err)

	act, err := s.service.Validate(raw)
	s.Require().NoError(err)
	s.Equal("U1", act.ID)
	s.Equal("Maria Lopez", act.DisplayName)
	s.Equal("maria@clinica.local", act.Email)
	s.Equal(principal.RoleAdmin, act.Role)
	s.Equal("America/Panama", act.Timezone)
}

func (s *TokenSuite) TestExpiredTokenIsRejected() {
	raw, err := s.service.Generate(s.principal(), "", -time.Minute)
	s.Require().NoError(err)

	_, err = s.service.Validate(raw)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.Equal("invalid or expired token", dErrors.Message(err))
}

func (s *TokenSuite) TestWrongKeyIsRejected() {
	raw, err := s.service.Generate(s.principal(), "", time.Hour)
	s.Require().NoError(err)

	_, err = NewService("a-different-key").Validate(raw)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *TokenSuite) TestGarbageIsRejected() {
	_, err := s.service.Validate("not.a.token")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}
