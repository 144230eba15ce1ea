package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xaxo/auth-service/internal/core/domain"
)

// RoleRepository implements ports.RoleRepository on the pre-seeded roles table.
type RoleRepository struct {
	pool *pgxpool.Pool
}

func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

func (r *RoleRepository) FindByName(ctx context.Context, name domain.Role) (*domain.RoleRecord, error) {
	const query = `SELECT id, name FROM roles WHERE name = $1`

	var record domain.RoleRecord
	if err := r.pool.QueryRow(ctx, query, string(name)).Scan(&record.ID, &record.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return &record, nil
}
