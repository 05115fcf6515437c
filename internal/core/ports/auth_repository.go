package ports

import (
	"context"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
)

// AuthRepository is the credential store keyed by username.
type AuthRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}
