package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
)

type stubAuthRepo struct {
	users map[string]*domain.User
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubAuthRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.users[user.Username]; exists {
		return nil, domain.ErrUserExists
	}
	copy := cloneUser(user)
	if copy.ID == "" {
		copy.ID = user.Username
	}
	r.users[copy.Username] = cloneUser(copy)
	return cloneUser(copy), nil
}

func (r *stubAuthRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func newTestAuthService(t *testing.T, allowAdminSignup bool) (*AuthService, *TokenService) {
	t.Helper()
	tokens, err := NewTokenService("secret", time.Hour)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	return NewAuthService(newStubAuthRepo(), tokens, allowAdminSignup, zerolog.Nop()), tokens
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, _ := newTestAuthService(t, false)

	user, err := svc.Register(context.Background(), "alice", "pass123", "")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected default role %q, got %q", domain.RoleUser, user.Role)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _ := newTestAuthService(t, false)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "", "pass", ""); !errors.Is(err, domain.ErrInvalidUserData) {
		t.Fatalf("expected ErrInvalidUserData, got %v", err)
	}
	if _, err := svc.Register(ctx, "   ", "pass", ""); !errors.Is(err, domain.ErrInvalidUserData) {
		t.Fatalf("expected ErrInvalidUserData for blank username, got %v", err)
	}
	if _, err := svc.Register(ctx, "bob", "pass", "superuser"); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestAuthService_Register_AdminSignup(t *testing.T) {
	closed, _ := newTestAuthService(t, false)
	if _, err := closed.Register(context.Background(), "eve", "pass", domain.RoleAdmin); !errors.Is(err, domain.ErrRoleNotAllowed) {
		t.Fatalf("expected ErrRoleNotAllowed, got %v", err)
	}

	open, _ := newTestAuthService(t, true)
	user, err := open.Register(context.Background(), "eve", "pass", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %q", user.Role)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc, _ := newTestAuthService(t, false)

	_, _ = svc.Register(context.Background(), "bob", "pass", "")
	if _, err := svc.Register(context.Background(), "bob", "pass2", ""); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Login_DefaultAdmin(t *testing.T) {
	svc, tokens := newTestAuthService(t, false)

	if _, err := svc.Provision(context.Background(), "admin", "admin123", domain.RoleAdmin); err != nil {
		t.Fatalf("provision failed: %v", err)
	}

	res, err := svc.Login(context.Background(), "admin", "admin123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token == "" || res.User.Username != "admin" || res.User.Role != domain.RoleAdmin {
		t.Fatalf("unexpected login result: %+v", res)
	}

	ac, err := tokens.Verify(res.Token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if ac.Role != domain.RoleAdmin || ac.Username != "admin" {
		t.Fatalf("unexpected auth context: %+v", ac)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	svc, _ := newTestAuthService(t, false)

	_, _ = svc.Provision(context.Background(), "admin", "admin123", domain.RoleAdmin)
	if _, err := svc.Login(context.Background(), "admin", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	svc, _ := newTestAuthService(t, false)

	if _, err := svc.Login(context.Background(), "ghost", "pass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty input, got %v", err)
	}
}

func TestAuthService_Profile(t *testing.T) {
	svc, _ := newTestAuthService(t, false)
	_, _ = svc.Register(context.Background(), "carol", "pass", "")

	user, err := svc.Profile(context.Background(), "carol")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if user.Username != "carol" || user.Role != domain.RoleUser {
		t.Fatalf("unexpected profile: %+v", user)
	}
	if _, err := svc.Profile(context.Background(), "nobody"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
