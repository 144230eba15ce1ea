package ports

import (
	"context"

	"github.com/xaxo/auth-service/internal/core/domain"
)

// SignUpInput carries a registration request into the workflow.
type SignUpInput struct {
	Username string
	Email    string
	Password string
	// Roles holds requested role names ("user", "moderator", "admin").
	// Empty means the default role is assigned.
	Roles []string
}

// SignInResult bundles the issued tokens with the resolved principal.
type SignInResult struct {
	AccessToken  string
	RefreshToken string
	User         *domain.User
}

// RefreshResult carries a reissued access token together with the refresh
// token that produced it.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
}

type AuthService interface {
	SignUp(ctx context.Context, in SignUpInput) error
	SignIn(ctx context.Context, username, password string) (*SignInResult, error)
	Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error)
}
