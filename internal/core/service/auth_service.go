package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/ports"
)

// AuthService implements registration, login and profile lookup.
type AuthService struct {
	repo             ports.AuthRepository
	tokens           ports.TokenIssuer
	allowAdminSignup bool
	log              zerolog.Logger
}

func NewAuthService(repo ports.AuthRepository, tokens ports.TokenIssuer, allowAdminSignup bool, log zerolog.Logger) *AuthService {
	return &AuthService{
		repo:             repo,
		tokens:           tokens,
		allowAdminSignup: allowAdminSignup,
		log:              log,
	}
}

// Register creates a self-service account. An empty role means RoleUser.
func (s *AuthService) Register(ctx context.Context, username, password, role string) (*domain.User, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		role = domain.RoleUser
	}
	if role == domain.RoleAdmin && !s.allowAdminSignup {
		return nil, domain.ErrRoleNotAllowed
	}
	return s.Provision(ctx, username, password, role)
}

// Provision creates an account with any valid role. It backs Register and the
// operator tooling that seeds accounts.
func (s *AuthService) Provision(ctx context.Context, username, password, role string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidUserData
	}
	if !domain.ValidRole(role) {
		return nil, domain.ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("username", created.Username).Str("role", created.Role).Msg("user created")
	return created, nil
}

// Login verifies the password and issues a token. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, exp, err := s.tokens.Issue(user.Username, user.Role)
	if err != nil {
		return nil, err
	}

	return &ports.LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// Profile returns the public view of username.
func (s *AuthService) Profile(ctx context.Context, username string) (*domain.User, error) {
	if username == "" {
		return nil, domain.ErrUserNotFound
	}
	return s.repo.FindByUsername(ctx, username)
}
