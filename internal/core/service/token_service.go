package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
)

const tokenIssuer = "spamguard"

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 bearer tokens. It holds no mutable
// state after construction, so a single instance is shared by all requests.
type TokenService struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// TokenOption customises a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewTokenService(secret string, ttl time.Duration, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token service: signing secret is empty")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	s := &TokenService{key: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for username carrying role.
func (s *TokenService) Issue(username, role string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := tokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks token and returns the identity it carries.
//
// Expiry is evaluated on the unverified claims first, so an expired token is
// reported as domain.ErrExpired whatever key signed it.
func (s *TokenService) Verify(token string) (domain.AuthContext, error) {
	var unverified tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &unverified); err != nil {
		return domain.AuthContext{}, fmt.Errorf("%w: %v", domain.ErrMalformed, err)
	}
	if unverified.ExpiresAt != nil && s.now().After(unverified.ExpiresAt.Time) {
		return domain.AuthContext{}, domain.ErrExpired
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	var claims tokenClaims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	if err != nil {
		return domain.AuthContext{}, classifyTokenError(err)
	}

	if claims.Subject == "" || !domain.ValidRole(claims.Role) {
		return domain.AuthContext{}, fmt.Errorf("%w: missing subject or role", domain.ErrMalformed)
	}
	return domain.AuthContext{Username: claims.Subject, Role: claims.Role}, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return domain.ErrInvalidSignature
	default:
		return fmt.Errorf("%w: %v", domain.ErrMalformed, err)
	}
}
