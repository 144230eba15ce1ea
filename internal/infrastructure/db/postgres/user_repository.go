package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xaxo/auth-service/internal/core/domain"
)

// uniqueViolation is the Postgres error code for a unique index violation.
const uniqueViolation = "23505"

// UserRepository implements ports.UserRepository on Postgres.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists by username: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists by email: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findBy(ctx, `WHERE u.username = $1`, username)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findBy(ctx, `WHERE u.id = $1`, id)
}

// Create inserts the user and its role assignments in a single transaction.
// A unique violation raced past the existence checks is mapped back to the
// corresponding duplicate error by constraint name.
func (r *UserRepository) Create(ctx context.Context, user *domain.User, roles []domain.RoleRecord) (*domain.User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("create user: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertUser = `
		INSERT INTO users (username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	var id int64
	err = tx.QueryRow(ctx, insertUser,
		user.Username, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return nil, mapUserInsertError(err)
	}

	const insertAssignment = `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`
	for _, role := range roles {
		if _, err := tx.Exec(ctx, insertAssignment, id, role.ID); err != nil {
			return nil, fmt.Errorf("create user: assign role %s: %w", role.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("create user: commit: %w", err)
	}

	created := *user
	created.ID = id
	created.Roles = make([]domain.Role, 0, len(roles))
	for _, role := range roles {
		created.Roles = append(created.Roles, role.Name)
	}
	return &created, nil
}

func (r *UserRepository) findBy(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.password_hash, u.created_at, u.updated_at,
		       COALESCE(array_agg(ro.name) FILTER (WHERE ro.name IS NOT NULL), '{}')
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		LEFT JOIN roles ro ON ro.id = ur.role_id
		` + where + `
		GROUP BY u.id`

	var u domain.User
	var roleNames []string
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt, &roleNames,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	u.Roles = make([]domain.Role, 0, len(roleNames))
	for _, name := range roleNames {
		u.Roles = append(u.Roles, domain.Role(name))
	}
	return &u, nil
}

func mapUserInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if strings.Contains(pgErr.ConstraintName, "email") {
			return domain.ErrEmailTaken
		}
		return domain.ErrUsernameTaken
	}
	return fmt.Errorf("create user: %w", err)
}
