package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/duoplay/internal/dependencies/mocks"
	"github.com/mcoot/duoplay/internal/model"
)

type ServiceSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	cfg := DefaultConfig()
	cfg.Secret = "test-secret"
	service, err := New(s.clock, cfg)
	s.Require().NoError(err)
	s.service = service
}

func (s *ServiceSuite) issue(identity model.Identity) string {
	token, _, _, err := s.service.Issue(identity)
	s.Require().NoError(err)
	return token
}

func (s *ServiceSuite) TestNewRequiresSecret() {
	_, err := New(s.clock, DefaultConfig())
	s.ErrorIs(err, ErrNoSecret)
}

func (s *ServiceSuite) TestIssueAndVerify() {
	token, identity, expiresAt, err := s.service.Issue(model.Identity{UserID: "u-alice", DisplayName: "Alice"})
	s.Require().NoError(err)
	s.Equal(s.clock.Now().Add(24*time.Hour), expiresAt)

	verified, err := s.service.Verify(token)
	s.Require().NoError(err)
	s.Equal(identity, verified)
	s.Equal(model.UserID("u-alice"), verified.UserID)
	s.Equal("Alice", verified.DisplayName)
}

func (s *ServiceSuite) TestIssueGeneratesUserID() {
	_, identity, _, err := s.service.Issue(model.Identity{DisplayName: "Guest"})
	s.Require().NoError(err)
	_, err = uuid.Parse(string(identity.UserID))
	s.NoError(err)
}

func (s *ServiceSuite) TestVerifyExpired() {
	token := s.issue(model.Identity{UserID: "u-alice", DisplayName: "Alice"})
	s.clock.Advance(25 * time.Hour)

	_, err := s.service.Verify(token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestVerifyMissing() {
	_, err := s.service.Verify("")
	s.ErrorIs(err, ErrMissingToken)
}

func (s *ServiceSuite) TestVerifyGarbage() {
	_, err := s.service.Verify("not-a-token")
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestVerifyWrongSecret() {
	cfg := DefaultConfig()
	cfg.Secret = "other-secret"
	other, err := New(s.clock, cfg)
	s.Require().NoError(err)

	token, _, _, err := other.Issue(model.Identity{UserID: "u-alice"})
	s.Require().NoError(err)

	_, err = s.service.Verify(token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestVerifyWrongIssuer() {
	cfg := DefaultConfig()
	cfg.Secret = "test-secret"
	cfg.Issuer = "someone-else"
	other, err := New(s.clock, cfg)
	s.Require().NoError(err)

	token, _, _, err := other.Issue(model.Identity{UserID: "u-alice"})
	s.Require().NoError(err)

	_, err = s.service.Verify(token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestVerifyRejectsNoneAlg() {
	claims := jwt.MapClaims{"sub": "u-alice", "iss": "duoplay", "exp": s.clock.Now().Add(time.Hour).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	s.Require().NoError(err)

	_, err = s.service.Verify(token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestVerifyWithoutSubject() {
	claims := jwt.MapClaims{"iss": "duoplay", "exp": s.clock.Now().Add(time.Hour).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	s.Require().NoError(err)

	_, err = s.service.Verify(token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestDisplayNameFallsBackToSubject() {
	claims := jwt.MapClaims{"sub": "u-bob", "iss": "duoplay", "exp": s.clock.Now().Add(time.Hour).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	s.Require().NoError(err)

	identity, err := s.service.Verify(token)
	s.Require().NoError(err)
	s.Equal("u-bob", identity.DisplayName)
}
