package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/xaxo/auth-service/internal/core/domain"
	"github.com/xaxo/auth-service/internal/core/ports"
	"github.com/xaxo/auth-service/internal/infrastructure/hash"
	"github.com/xaxo/auth-service/internal/infrastructure/token"
)

const testSecret = "test-secret"

type stubUserRepo struct {
	nextID int64
	users  map[string]*domain.User // by username
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Roles = append([]domain.Role(nil), u.Roles...)
	return &clone
}

func (r *stubUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, ok := r.users[username]
	return ok, nil
}

func (r *stubUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User, roles []domain.RoleRecord) (*domain.User, error) {
	r.nextID++
	created := cloneUser(user)
	created.ID = r.nextID
	created.Roles = nil
	for _, role := range roles {
		created.Roles = append(created.Roles, role.Name)
	}
	r.users[created.Username] = cloneUser(created)
	return created, nil
}

type stubRoleRepo struct {
	records map[domain.Role]domain.RoleRecord
}

func newStubRoleRepo() *stubRoleRepo {
	return &stubRoleRepo{records: map[domain.Role]domain.RoleRecord{
		domain.RoleUser:      {ID: 1, Name: domain.RoleUser},
		domain.RoleModerator: {ID: 2, Name: domain.RoleModerator},
		domain.RoleAdmin:     {ID: 3, Name: domain.RoleAdmin},
	}}
}

func (r *stubRoleRepo) FindByName(_ context.Context, name domain.Role) (*domain.RoleRecord, error) {
	record, ok := r.records[name]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	return &record, nil
}

type stubRefreshRepo struct {
	nextID int64
	tokens map[string]*domain.RefreshToken // by token string
}

func newStubRefreshRepo() *stubRefreshRepo {
	return &stubRefreshRepo{tokens: make(map[string]*domain.RefreshToken)}
}

func (r *stubRefreshRepo) FindByToken(_ context.Context, tok string) (*domain.RefreshToken, error) {
	t, ok := r.tokens[tok]
	if !ok {
		return nil, domain.ErrRefreshTokenNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *stubRefreshRepo) Create(_ context.Context, t *domain.RefreshToken) (*domain.RefreshToken, error) {
	r.nextID++
	clone := *t
	clone.ID = r.nextID
	r.tokens[clone.Token] = &clone
	return &clone, nil
}

func (r *stubRefreshRepo) DeleteByUserID(_ context.Context, userID int64) error {
	for tok, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, tok)
		}
	}
	return nil
}

func (r *stubRefreshRepo) DeleteByToken(_ context.Context, tok string) error {
	delete(r.tokens, tok)
	return nil
}

type deps struct {
	users   *stubUserRepo
	roles   *stubRoleRepo
	refresh *stubRefreshRepo
}

func newService(t *testing.T, limiter ports.AttemptLimiter) (ports.AuthService, *deps) {
	t.Helper()
	d := &deps{
		users:   newStubUserRepo(),
		roles:   newStubRoleRepo(),
		refresh: newStubRefreshRepo(),
	}
	svc := NewAuthService(
		d.users, d.roles, d.refresh,
		hash.NewBcryptHasher(bcrypt.MinCost),
		token.NewJWTIssuer(testSecret, time.Hour),
		limiter,
		time.Hour,
		zerolog.Nop(),
	)
	return svc, d
}

func signUp(t *testing.T, svc ports.AuthService, username, email, password string, roles []string) {
	t.Helper()
	err := svc.SignUp(context.Background(), ports.SignUpInput{
		Username: username,
		Email:    email,
		Password: password,
		Roles:    roles,
	})
	if err != nil {
		t.Fatalf("signup %s failed: %v", username, err)
	}
}

func TestAuthService_SignUp_DefaultRole(t *testing.T) {
	svc, d := newService(t, nil)

	signUp(t, svc, "alice", "a@x.com", "secret1", nil)

	stored := d.users.users["alice"]
	if stored == nil {
		t.Fatalf("expected user to be persisted")
	}
	if len(stored.Roles) != 1 || stored.Roles[0] != domain.RoleUser {
		t.Fatalf("expected exactly the default role, got %v", stored.Roles)
	}
	if stored.PasswordHash == "secret1" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAuthService_SignUp_RequestedRoles(t *testing.T) {
	svc, d := newService(t, nil)

	signUp(t, svc, "bob", "b@x.com", "secret1", []string{"Admin", "MOD"})

	stored := d.users.users["bob"]
	got := append([]string(nil), stored.RoleStrings()...)
	sort.Strings(got)
	want := []string{"ROLE_ADMIN", "ROLE_MODERATOR"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("unexpected roles: %v", got)
	}
}

func TestAuthService_SignUp_DuplicateUsername(t *testing.T) {
	svc, d := newService(t, nil)

	signUp(t, svc, "alice", "a@x.com", "secret1", nil)
	err := svc.SignUp(context.Background(), ports.SignUpInput{
		Username: "alice", Email: "other@x.com", Password: "secret2",
	})
	if err != domain.ErrUsernameTaken {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if len(d.users.users) != 1 {
		t.Fatalf("no new row should be persisted, got %d", len(d.users.users))
	}
}

func TestAuthService_SignUp_DuplicateEmail(t *testing.T) {
	svc, d := newService(t, nil)

	signUp(t, svc, "alice", "a@x.com", "secret1", nil)
	err := svc.SignUp(context.Background(), ports.SignUpInput{
		Username: "alice2", Email: "a@x.com", Password: "secret2",
	})
	if err != domain.ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if len(d.users.users) != 1 {
		t.Fatalf("no new row should be persisted, got %d", len(d.users.users))
	}
}

func TestAuthService_SignUp_UnknownRole(t *testing.T) {
	svc, d := newService(t, nil)

	err := svc.SignUp(context.Background(), ports.SignUpInput{
		Username: "carol", Email: "c@x.com", Password: "secret1",
		Roles: []string{"superuser"},
	})
	if !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if len(d.users.users) != 0 {
		t.Fatalf("no user should be persisted on role failure")
	}
}

func TestAuthService_SignUp_RoleMissingFromCatalog(t *testing.T) {
	svc, d := newService(t, nil)
	delete(d.roles.records, domain.RoleModerator)

	err := svc.SignUp(context.Background(), ports.SignUpInput{
		Username: "carol", Email: "c@x.com", Password: "secret1",
		Roles: []string{"moderator"},
	})
	if !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
	if len(d.users.users) != 0 {
		t.Fatalf("no user should be persisted on catalog failure")
	}
}

func TestAuthService_SignIn_Success(t *testing.T) {
	svc, d := newService(t, nil)
	signUp(t, svc, "alice", "a@x.com", "secret1", []string{"user", "admin"})

	result, err := svc.SignIn(context.Background(), "alice", "secret1")
	if err != nil {
		t.Fatalf("signin failed: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatalf("expected access token, got empty")
	}
	if len(result.RefreshToken) != 36 {
		t.Fatalf("expected 36-char refresh token, got %q", result.RefreshToken)
	}
	if result.User == nil || result.User.Email != "a@x.com" {
		t.Fatalf("unexpected principal: %+v", result.User)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(result.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("access token invalid: %v", err)
	}
	if claims["username"] != "alice" {
		t.Fatalf("expected username claim alice, got %v", claims["username"])
	}

	got := rolesFromClaims(t, claims)
	want := append([]string(nil), d.users.users["alice"].RoleStrings()...)
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("role claim mismatch: got %v want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("role claim mismatch: got %v want %v", got, want)
		}
	}
}

func TestAuthService_SignIn_FailuresAreIndistinguishable(t *testing.T) {
	svc, _ := newService(t, nil)
	signUp(t, svc, "alice", "a@x.com", "secret1", nil)

	_, wrongPass := svc.SignIn(context.Background(), "alice", "wrong")
	_, unknownUser := svc.SignIn(context.Background(), "ghost", "secret1")

	if wrongPass != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongPass)
	}
	if unknownUser != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", unknownUser)
	}
}

func TestAuthService_SignIn_ReplacesRefreshToken(t *testing.T) {
	svc, d := newService(t, nil)
	signUp(t, svc, "alice", "a@x.com", "secret1", nil)

	first, err := svc.SignIn(context.Background(), "alice", "secret1")
	if err != nil {
		t.Fatalf("first signin failed: %v", err)
	}
	second, err := svc.SignIn(context.Background(), "alice", "secret1")
	if err != nil {
		t.Fatalf("second signin failed: %v", err)
	}

	if first.RefreshToken == second.RefreshToken {
		t.Fatalf("expected a new refresh token on each signin")
	}
	if _, ok := d.refresh.tokens[first.RefreshToken]; ok {
		t.Fatalf("first refresh token should have been deleted")
	}
	if _, ok := d.refresh.tokens[second.RefreshToken]; !ok {
		t.Fatalf("second refresh token should be live")
	}
	if len(d.refresh.tokens) != 1 {
		t.Fatalf("expected exactly one live token, got %d", len(d.refresh.tokens))
	}
}

type stubLimiter struct {
	allow    bool
	failures int
	resets   int
}

func (l *stubLimiter) Allow(context.Context, string) (bool, error) { return l.allow, nil }
func (l *stubLimiter) RecordFailure(context.Context, string) error { l.failures++; return nil }
func (l *stubLimiter) Reset(context.Context, string) error         { l.resets++; return nil }

func TestAuthService_SignIn_Throttled(t *testing.T) {
	limiter := &stubLimiter{allow: false}
	svc, _ := newService(t, limiter)
	signUp(t, svc, "alice", "a@x.com", "secret1", nil)

	if _, err := svc.SignIn(context.Background(), "alice", "secret1"); err != domain.ErrTooManyAttempts {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestAuthService_SignIn_LimiterBookkeeping(t *testing.T) {
	limiter := &stubLimiter{allow: true}
	svc, _ := newService(t, limiter)
	signUp(t, svc, "alice", "a@x.com", "secret1", nil)

	_, _ = svc.SignIn(context.Background(), "alice", "wrong")
	if limiter.failures != 1 {
		t.Fatalf("expected one recorded failure, got %d", limiter.failures)
	}

	if _, err := svc.SignIn(context.Background(), "alice", "secret1"); err != nil {
		t.Fatalf("signin failed: %v", err)
	}
	if limiter.resets != 1 {
		t.Fatalf("expected counter reset on success, got %d", limiter.resets)
	}
}

func TestAuthService_Refresh_RoundTrip(t *testing.T) {
	svc, _ := newService(t, nil)
	signUp(t, svc, "alice", "a@x.com", "secret1", nil)

	signin, err := svc.SignIn(context.Background(), "alice", "secret1")
	if err != nil {
		t.Fatalf("signin failed: %v", err)
	}

	result, err := svc.Refresh(context.Background(), signin.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatalf("expected a fresh access token")
	}
	if result.RefreshToken != signin.RefreshToken {
		t.Fatalf("refresh token must not rotate on use: got %q want %q", result.RefreshToken, signin.RefreshToken)
	}
}

func TestAuthService_Refresh_Unknown(t *testing.T) {
	svc, _ := newService(t, nil)

	if _, err := svc.Refresh(context.Background(), "no-such-token"); err != domain.ErrRefreshTokenNotFound {
		t.Fatalf("expected ErrRefreshTokenNotFound, got %v", err)
	}
}

func TestAuthService_Refresh_Expired(t *testing.T) {
	svc, d := newService(t, nil)
	signUp(t, svc, "alice", "a@x.com", "secret1", nil)

	expired := &domain.RefreshToken{
		UserID:    d.users.users["alice"].ID,
		Token:     "11111111-2222-3333-4444-555555555555",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	if _, err := d.refresh.Create(context.Background(), expired); err != nil {
		t.Fatalf("seed expired token: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), expired.Token); err != domain.ErrRefreshTokenExpired {
		t.Fatalf("expected ErrRefreshTokenExpired, got %v", err)
	}
	if _, ok := d.refresh.tokens[expired.Token]; ok {
		t.Fatalf("expired token should be removed from the store")
	}
}

func rolesFromClaims(t *testing.T, claims jwt.MapClaims) []string {
	t.Helper()
	raw, ok := claims["roles"].([]interface{})
	if !ok {
		t.Fatalf("roles claim missing or wrong type: %v", claims["roles"])
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.(string))
	}
	return out
}
