package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc, err := NewTokenService("secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	for _, tc := range []struct{ username, role string }{
		{"admin", domain.RoleAdmin},
		{"user", domain.RoleUser},
		{"ünïcode-name", domain.RoleUser},
	} {
		token, exp, err := svc.Issue(tc.username, tc.role)
		if err != nil {
			t.Fatalf("Issue(%s): %v", tc.username, err)
		}
		if time.Until(exp) <= 0 {
			t.Fatalf("expiry not in the future: %v", exp)
		}

		ac, err := svc.Verify(token)
		if err != nil {
			t.Fatalf("Verify(%s): %v", tc.username, err)
		}
		if ac.Username != tc.username || ac.Role != tc.role {
			t.Fatalf("unexpected context %+v for %s/%s", ac, tc.username, tc.role)
		}
	}
}

func TestTokenService_ClaimsShape(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc, _ := NewTokenService("secret", 30*time.Minute, WithClock(fixedClock(now)))

	token, exp, err := svc.Issue("alice", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !exp.Equal(now.Add(30 * time.Minute)) {
		t.Fatalf("unexpected expiry %v", exp)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims["sub"] != "alice" || claims["role"] != domain.RoleAdmin {
		t.Fatalf("unexpected claims: %v", claims)
	}
	if claims["iat"].(float64) != float64(now.Unix()) || claims["exp"].(float64) != float64(exp.Unix()) {
		t.Fatalf("unexpected timestamps: %v", claims)
	}
}

func TestTokenService_Expired(t *testing.T) {
	issuedAt := time.Now().Add(-2 * time.Hour)
	issuer, _ := NewTokenService("secret", time.Hour, WithClock(fixedClock(issuedAt)))
	token, _, err := issuer.Issue("alice", domain.RoleUser)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	same, _ := NewTokenService("secret", time.Hour)
	if _, err := same.Verify(token); !errors.Is(err, domain.ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}

	// Expiry wins regardless of which key signed the token.
	other, _ := NewTokenService("another-secret", time.Hour)
	if _, err := other.Verify(token); !errors.Is(err, domain.ErrExpired) {
		t.Fatalf("expected ErrExpired with foreign key, got %v", err)
	}
}

func TestTokenService_ForeignKey(t *testing.T) {
	foreign, _ := NewTokenService("attacker", time.Hour)
	token, _, _ := foreign.Issue("mallory", domain.RoleAdmin)

	svc, _ := NewTokenService("secret", time.Hour)
	if _, err := svc.Verify(token); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":  "mallory",
		"role": domain.RoleAdmin,
		"iss":  tokenIssuer,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign hs512: %v", err)
	}

	svc, _ := NewTokenService("secret", time.Hour)
	for name, token := range map[string]string{"none": unsigned, "hs512": hs512} {
		if _, err := svc.Verify(token); !errors.Is(err, domain.ErrInvalidSignature) {
			t.Fatalf("%s: expected ErrInvalidSignature, got %v", name, err)
		}
	}
}

func TestTokenService_Malformed(t *testing.T) {
	svc, _ := NewTokenService("secret", time.Hour)

	sign := func(claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	exp := time.Now().Add(time.Hour).Unix()

	cases := map[string]string{
		"garbage":       "not-a-token",
		"empty":         "",
		"two segments":  "a.b",
		"no role":       sign(jwt.MapClaims{"sub": "alice", "iss": tokenIssuer, "exp": exp}),
		"unknown role":  sign(jwt.MapClaims{"sub": "alice", "role": "root", "iss": tokenIssuer, "exp": exp}),
		"no subject":    sign(jwt.MapClaims{"role": domain.RoleUser, "iss": tokenIssuer, "exp": exp}),
		"no expiry":     sign(jwt.MapClaims{"sub": "alice", "role": domain.RoleUser, "iss": tokenIssuer}),
		"wrong issuer":  sign(jwt.MapClaims{"sub": "alice", "role": domain.RoleUser, "iss": "elsewhere", "exp": exp}),
		"role not text": sign(jwt.MapClaims{"sub": "alice", "role": 7, "iss": tokenIssuer, "exp": exp}),
	}
	for name, token := range cases {
		if _, err := svc.Verify(token); !errors.Is(err, domain.ErrMalformed) {
			t.Fatalf("%s: expected ErrMalformed, got %v", name, err)
		}
	}

	parts := strings.Split(sign(jwt.MapClaims{"sub": "a", "role": "user", "iss": tokenIssuer, "exp": exp}), ".")
	if _, err := svc.Verify(parts[0] + ".%%%." + parts[2]); !errors.Is(err, domain.ErrMalformed) {
		t.Fatalf("bad payload encoding: expected ErrMalformed, got %v", err)
	}
}

func TestNewTokenService_EmptySecret(t *testing.T) {
	if _, err := NewTokenService("", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
