package server

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrAuthDisabled is returned when no keys or secret are configured.
	ErrAuthDisabled = errors.New("authentication not configured")

	// ErrInvalidToken is returned for bad or expired credentials.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrMissingToken is returned when no bearer token is supplied.
	ErrMissingToken = errors.New("missing bearer token")
)

// JWTService signs and verifies remote-access tokens.
type JWTService struct {
	secret []byte
	expiry time.Duration
}

// NewJWTService builds a JWT helper with the given secret and expiry.
func NewJWTService(secret string, expiry time.Duration) *JWTService {
	return &JWTService{secret: []byte(secret), expiry: expiry}
}

type tokenClaims struct {
	jwt.RegisteredClaims
}

// Generate issues a signed token for the given subject.
func (s *JWTService) Generate(subject string) (string, error) {
	if s == nil || len(s.secret) == 0 {
		return "", ErrAuthDisabled
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("subject required")
	}

	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if s.expiry > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(s.expiry))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses a token and returns its subject.
func (s *JWTService) Validate(token string) (string, error) {
	if s == nil || len(s.secret) == 0 {
		return "", ErrAuthDisabled
	}

	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Authenticator checks bearer credentials against static API keys and,
// when configured, JWT tokens.
type Authenticator struct {
	apiKeys []string
	jwt     *JWTService
}

// NewAuthenticator builds an authenticator. A nil jwt service disables
// token auth; empty apiKeys disables static keys. With neither
// configured every request is rejected.
func NewAuthenticator(apiKeys []string, jwtService *JWTService) *Authenticator {
	return &Authenticator{apiKeys: apiKeys, jwt: jwtService}
}

// Authenticate checks the request's Authorization header.
func (a *Authenticator) Authenticate(r *http.Request) error {
	token, err := bearerToken(r)
	if err != nil {
		return err
	}

	for _, key := range a.apiKeys {
		if subtle.ConstantTimeCompare([]byte(token), []byte(key)) == 1 {
			return nil
		}
	}

	if a.jwt != nil {
		if _, err := a.jwt.Validate(token); err == nil {
			return nil
		}
	}

	if len(a.apiKeys) == 0 && a.jwt == nil {
		return ErrAuthDisabled
	}
	return ErrInvalidToken
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", ErrMissingToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
