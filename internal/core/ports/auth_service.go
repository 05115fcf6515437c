package ports

import (
	"context"
	"time"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
)

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

type AuthService interface {
	Register(ctx context.Context, username, password, role string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Profile(ctx context.Context, username string) (*domain.User, error)
}

// TokenIssuer signs tokens for an authenticated identity.
type TokenIssuer interface {
	Issue(username, role string) (string, time.Time, error)
}

// TokenVerifier checks a raw token and derives the request identity.
type TokenVerifier interface {
	Verify(token string) (domain.AuthContext, error)
}
