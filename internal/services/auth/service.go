// Package auth verifies the credential a client presents when it opens a
// connection and turns it into an identity. It can also mint tokens for
// development clients.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mcoot/duoplay/internal/dependencies/clock"
	"github.com/mcoot/duoplay/internal/model"
)

// Errors
var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("missing token")
	ErrNoSecret     = errors.New("auth secret is not configured")
)

// Config holds configuration for the auth service
type Config struct {
	Secret        string
	Issuer        string
	TokenDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		Issuer:        "duoplay",
		TokenDuration: 24 * time.Hour,
	}
}

// Claims are the token claims. The subject is the user ID.
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Verifier turns a handshake credential into an identity
type Verifier interface {
	Verify(token string) (model.Identity, error)
}

// Service signs and verifies HS256 tokens
type Service struct {
	secret   []byte
	issuer   string
	duration time.Duration
	clock    clock.Clock
}

var _ Verifier = (*Service)(nil)

// New creates a new auth Service
func New(clock clock.Clock, cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, ErrNoSecret
	}
	if cfg.TokenDuration == 0 {
		cfg.TokenDuration = DefaultConfig().TokenDuration
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultConfig().Issuer
	}
	return &Service{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		duration: cfg.TokenDuration,
		clock:    clock,
	}, nil
}

// Issue mints a token for the identity. An empty user ID gets a fresh one.
func (s *Service) Issue(identity model.Identity) (string, model.Identity, time.Time, error) {
	if identity.UserID == "" {
		identity.UserID = model.UserID(uuid.NewString())
	}
	if strings.TrimSpace(identity.DisplayName) == "" {
		identity.DisplayName = string(identity.UserID)
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.duration)
	claims := Claims{
		Name: identity.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(identity.UserID),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", model.Identity{}, time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, identity, expiresAt, nil
}

// Verify checks the signature, issuer and expiry of a token
func (s *Service) Verify(token string) (model.Identity, error) {
	if token == "" {
		return model.Identity{}, ErrMissingToken
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		// only the HMAC family is accepted
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected alg: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithIssuer(s.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !parsed.Valid {
		return model.Identity{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return model.Identity{}, ErrInvalidToken
	}

	name := claims.Name
	if name == "" {
		name = claims.Subject
	}
	return model.Identity{UserID: model.UserID(claims.Subject), DisplayName: name}, nil
}
