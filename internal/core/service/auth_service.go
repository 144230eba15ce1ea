package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xaxo/auth-service/internal/core/domain"
	"github.com/xaxo/auth-service/internal/core/ports"
)

const defaultRefreshTTL = 7 * 24 * time.Hour

type authService struct {
	users         ports.UserRepository
	roles         ports.RoleRepository
	refreshTokens ports.RefreshTokenRepository
	hasher        ports.PasswordHasher
	issuer        ports.TokenIssuer
	limiter       ports.AttemptLimiter // nil disables signin throttling
	refreshTTL    time.Duration
	log           zerolog.Logger
}

// NewAuthService wires the signup/signin/refresh workflow with its collaborators.
func NewAuthService(
	users ports.UserRepository,
	roles ports.RoleRepository,
	refreshTokens ports.RefreshTokenRepository,
	hasher ports.PasswordHasher,
	issuer ports.TokenIssuer,
	limiter ports.AttemptLimiter,
	refreshTTL time.Duration,
	log zerolog.Logger,
) ports.AuthService {
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &authService{
		users:         users,
		roles:         roles,
		refreshTokens: refreshTokens,
		hasher:        hasher,
		issuer:        issuer,
		limiter:       limiter,
		refreshTTL:    refreshTTL,
		log:           log,
	}
}

// SignUp registers a new account. No tokens are issued on signup.
func (s *authService) SignUp(ctx context.Context, in ports.SignUpInput) error {
	// 1. Uniqueness checks. Not atomic against concurrent signups — the unique
	//    indexes are the final arbiter and the repository maps a violation back
	//    to the same duplicate error.
	taken, err := s.users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return fmt.Errorf("signup: %w", err)
	}
	if taken {
		return domain.ErrUsernameTaken
	}

	inUse, err := s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return fmt.Errorf("signup: %w", err)
	}
	if inUse {
		return domain.ErrEmailTaken
	}

	// 2. Hash the password. The raw password is never stored or logged.
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return fmt.Errorf("signup: hash password: %w", err)
	}

	// 3. Resolve requested roles, or fall back to the default role.
	records, err := s.resolveRoles(ctx, in.Roles)
	if err != nil {
		return err
	}

	// 4. Persist user + role assignments in one transaction.
	now := time.Now().UTC()
	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := s.users.Create(ctx, user, records)
	if err != nil {
		return fmt.Errorf("signup: %w", err)
	}

	s.log.Info().
		Int64("user_id", created.ID).
		Str("username", created.Username).
		Strs("roles", created.RoleStrings()).
		Msg("user registered")

	return nil
}

// SignIn verifies credentials, issues an access token, and replaces the user's
// refresh token. Unknown usernames and wrong passwords fail identically so the
// error surface does not allow username enumeration.
func (s *authService) SignIn(ctx context.Context, username, password string) (*ports.SignInResult, error) {
	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, username)
		if err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("attempt limiter unavailable, allowing signin")
		} else if !ok {
			return nil, domain.ErrTooManyAttempts
		}
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.recordFailure(ctx, username)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("signin: %w", err)
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		s.recordFailure(ctx, username)
		return nil, domain.ErrInvalidCredentials
	}

	accessToken, err := s.issuer.Issue(user.Username, user.RoleStrings())
	if err != nil {
		return nil, fmt.Errorf("signin: issue token: %w", err)
	}

	// Replace-not-accumulate: a user holds at most one live refresh token.
	if err := s.refreshTokens.DeleteByUserID(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("signin: rotate refresh token: %w", err)
	}
	refresh, err := s.refreshTokens.Create(ctx, &domain.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().UTC().Add(s.refreshTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("signin: create refresh token: %w", err)
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, username); err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("failed to reset attempt counter")
		}
	}

	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user signed in")

	return &ports.SignInResult{
		AccessToken:  accessToken,
		RefreshToken: refresh.Token,
		User:         user,
	}, nil
}

// Refresh exchanges a stored, unexpired refresh token for a fresh access token.
// The refresh token itself is returned unchanged: it is only replaced on a new
// signin, not rotated on use.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*ports.RefreshResult, error) {
	stored, err := s.refreshTokens.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrRefreshTokenNotFound) {
			return nil, domain.ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	if stored.ExpiredAt(time.Now().UTC()) {
		if err := s.refreshTokens.DeleteByToken(ctx, stored.Token); err != nil {
			s.log.Warn().Err(err).Int64("user_id", stored.UserID).Msg("failed to delete expired refresh token")
		}
		return nil, domain.ErrRefreshTokenExpired
	}

	user, err := s.users.FindByID(ctx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("refresh: resolve owner: %w", err)
	}

	accessToken, err := s.issuer.Issue(user.Username, user.RoleStrings())
	if err != nil {
		return nil, fmt.Errorf("refresh: issue token: %w", err)
	}

	return &ports.RefreshResult{
		AccessToken:  accessToken,
		RefreshToken: stored.Token,
	}, nil
}

// resolveRoles maps requested role names to catalog rows. An empty request
// yields exactly the default role. Duplicate names collapse to one assignment.
func (s *authService) resolveRoles(ctx context.Context, names []string) ([]domain.RoleRecord, error) {
	if len(names) == 0 {
		record, err := s.lookupRole(ctx, domain.RoleUser)
		if err != nil {
			return nil, err
		}
		return []domain.RoleRecord{*record}, nil
	}

	seen := make(map[domain.Role]struct{}, len(names))
	records := make([]domain.RoleRecord, 0, len(names))
	for _, name := range names {
		role, err := domain.RoleFromString(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRole, name)
		}
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}

		record, err := s.lookupRole(ctx, role)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, nil
}

func (s *authService) lookupRole(ctx context.Context, role domain.Role) (*domain.RoleRecord, error) {
	record, err := s.roles.FindByName(ctx, role)
	if err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			// Catalog misconfiguration: the enumeration member has no row.
			s.log.Error().Str("role", string(role)).Msg("role catalog is missing an enumerated role")
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("resolve role %s: %w", role, err)
	}
	return record, nil
}

func (s *authService) recordFailure(ctx context.Context, username string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.RecordFailure(ctx, username); err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("failed to record signin failure")
	}
}
