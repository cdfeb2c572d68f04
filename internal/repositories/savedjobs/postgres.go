// Package savedjobs provides the PostgreSQL-backed repository for the
// per-user saved-job set.
package savedjobs

import (
	"context"
	"fmt"

	"github.com/employnext/jobcore/internal/dbx"
	"github.com/employnext/jobcore/internal/models"
)

// PostgresRepository implements saved-job storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Save adds jobID to the user's set. Saving an already-saved job is a no-op.
func (r *PostgresRepository) Save(ctx context.Context, userID, jobID string) error {
	query := `
		INSERT INTO saved_jobs (user_id, job_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, job_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, userID, jobID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Unsave removes jobID from the user's set. Removing an absent membership is
// a no-op.
func (r *PostgresRepository) Unsave(ctx context.Context, userID, jobID string) error {
	query := `DELETE FROM saved_jobs WHERE user_id = $1 AND job_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, jobID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// IsSaved reports whether jobID is in the user's set.
func (r *PostgresRepository) IsSaved(ctx context.Context, userID, jobID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM saved_jobs WHERE user_id = $1 AND job_id = $2)`
	var saved bool
	if err := r.db.QueryRowContext(ctx, query, userID, jobID).Scan(&saved); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return saved, nil
}

// List returns saved postings, most recently saved first. The inner join
// drops memberships whose posting was deleted.
func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*models.Job, error) {
	query := `
		SELECT j.id, j.owner_id, j.title, j.company, j.location, j.description,
		       j.application_count, j.active, j.created_at, j.updated_at
		FROM saved_jobs s
		JOIN jobs j ON j.id = s.job_id
		WHERE s.user_id = $1
		ORDER BY s.saved_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Job
	for rows.Next() {
		job := &models.Job{}
		err := rows.Scan(
			&job.ID, &job.OwnerID, &job.Title, &job.Company, &job.Location,
			&job.Description, &job.ApplicationCount, &job.Active,
			&job.CreatedAt, &job.UpdatedAt,
		)
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

// Entries returns the raw membership rows for userID.
func (r *PostgresRepository) Entries(ctx context.Context, userID string) ([]*models.SavedJobEntry, error) {
	query := `
		SELECT user_id, job_id, saved_at FROM saved_jobs
		WHERE user_id = $1
		ORDER BY saved_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.SavedJobEntry
	for rows.Next() {
		entry := &models.SavedJobEntry{}
		if err := rows.Scan(&entry.UserID, &entry.JobID, &entry.SavedAt); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
