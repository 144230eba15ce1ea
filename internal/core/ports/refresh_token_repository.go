package ports

import (
	"context"

	"github.com/xaxo/auth-service/internal/core/domain"
)

// RefreshTokenRepository defines the interface for refresh token persistence.
type RefreshTokenRepository interface {
	FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	Create(ctx context.Context, token *domain.RefreshToken) (*domain.RefreshToken, error)
	DeleteByUserID(ctx context.Context, userID int64) error
	DeleteByToken(ctx context.Context, token string) error
}
