package ports

import (
	"context"

	"github.com/xaxo/auth-service/internal/core/domain"
)

// UserRepository defines the interface for user persistence.
type UserRepository interface {
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// Create persists the user and its role assignments atomically.
	Create(ctx context.Context, user *domain.User, roles []domain.RoleRecord) (*domain.User, error)
}
