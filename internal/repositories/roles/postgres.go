// Package roles provides the PostgreSQL-backed repository for per-user role
// records.
package roles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/employnext/jobcore/internal/common"
	"github.com/employnext/jobcore/internal/dbx"
	"github.com/employnext/jobcore/internal/models"
)

// PostgresRepository implements role-record storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the role for userID, or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, userID string) (models.Role, error) {
	query := `
		SELECT role FROM user_roles
		WHERE user_id = $1
	`
	var role models.Role
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return role, nil
}

// Set upserts the role record for userID. Registration is the only caller;
// a user's role is never rewritten after that, but the upsert keeps the
// write path idempotent for registration retries.
func (r *PostgresRepository) Set(ctx context.Context, userID string, role models.Role) error {
	query := `
		INSERT INTO user_roles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET role = EXCLUDED.role
	`
	if _, err := r.db.ExecContext(ctx, query, userID, role); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
