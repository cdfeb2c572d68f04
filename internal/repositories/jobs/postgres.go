// Package jobs provides the PostgreSQL-backed repository for job postings,
// including the atomic applicant-counter adjustment used by the tracker.
package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/employnext/jobcore/internal/common"
	"github.com/employnext/jobcore/internal/dbx"
	"github.com/employnext/jobcore/internal/models"
)

// PostgresRepository implements job storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const jobColumns = `id, owner_id, title, company, location, description, application_count, active, created_at, updated_at`

func scanJob(row interface{ Scan(...any) error }) (*models.Job, error) {
	job := &models.Job{}
	err := row.Scan(
		&job.ID, &job.OwnerID, &job.Title, &job.Company, &job.Location,
		&job.Description, &job.ApplicationCount, &job.Active,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return job, nil
}

// Create inserts a job and fills in the generated fields.
func (r *PostgresRepository) Create(ctx context.Context, job *models.Job) (*models.Job, error) {
	query := `
		INSERT INTO jobs (owner_id, title, company, location, description, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		job.OwnerID, job.Title, job.Company, job.Location, job.Description, job.Active).
		Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return job, nil
}

// Get returns the job or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	job, err := scanJob(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return job, nil
}

// ListActive returns active postings, newest first.
func (r *PostgresRepository) ListActive(ctx context.Context) ([]*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE active ORDER BY created_at DESC`
	return r.list(ctx, query)
}

// ListByOwner returns every posting owned by ownerID, newest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE owner_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, ownerID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Job, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SetActive toggles a posting. Returns common.ErrorNotFound for unknown ids.
func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `
		UPDATE jobs SET active = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Delete removes a posting. Applications referencing it are left in place
// for the tracker's orphan cleanup. Returns common.ErrorNotFound for
// unknown ids.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM jobs WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// AdjustApplicationCount adds delta to the counter, flooring at zero, in a
// single UPDATE. Returns false when the job no longer exists so cancel can
// treat the counter update as a no-op.
func (r *PostgresRepository) AdjustApplicationCount(ctx context.Context, id string, delta int) (bool, error) {
	query := `
		UPDATE jobs
		SET application_count = GREATEST(application_count + $2, 0), updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, delta)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}
