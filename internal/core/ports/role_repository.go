package ports

import (
	"context"

	"github.com/xaxo/auth-service/internal/core/domain"
)

// RoleRepository looks up rows of the pre-seeded role catalog.
type RoleRepository interface {
	FindByName(ctx context.Context, name domain.Role) (*domain.RoleRecord, error)
}
