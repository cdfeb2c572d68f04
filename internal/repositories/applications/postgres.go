// Package applications provides the PostgreSQL-backed repository for
// candidate applications.
package applications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/employnext/jobcore/internal/common"
	"github.com/employnext/jobcore/internal/dbx"
	"github.com/employnext/jobcore/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// PostgresRepository implements application storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const appColumns = `id, user_id, job_id, status, cover_letter, resume_key, applied_at, updated_at`

func scanApplication(row interface{ Scan(...any) error }) (*models.Application, error) {
	app := &models.Application{}
	err := row.Scan(
		&app.ID, &app.UserID, &app.JobID, &app.Status,
		&app.CoverLetter, &app.ResumeKey, &app.AppliedAt, &app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// Create inserts the application. A duplicate (user_id, job_id) pair comes
// back as common.ErrorAlreadyApplied via the unique index.
func (r *PostgresRepository) Create(ctx context.Context, app *models.Application) (*models.Application, error) {
	query := `
		INSERT INTO applications (user_id, job_id, status, cover_letter, resume_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, applied_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		app.UserID, app.JobID, app.Status, app.CoverLetter, app.ResumeKey).
		Scan(&app.ID, &app.AppliedAt, &app.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrorAlreadyApplied
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return app, nil
}

// Get returns the application or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Application, error) {
	query := `SELECT ` + appColumns + ` FROM applications WHERE id = $1`
	app, err := scanApplication(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return app, nil
}

// FindByUserAndJob returns the pair's application or common.ErrorNotFound.
func (r *PostgresRepository) FindByUserAndJob(ctx context.Context, userID, jobID string) (*models.Application, error) {
	query := `SELECT ` + appColumns + ` FROM applications WHERE user_id = $1 AND job_id = $2`
	app, err := scanApplication(r.db.QueryRowContext(ctx, query, userID, jobID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return app, nil
}

// Delete removes the pair's application, returning common.ErrorNotFound when
// nothing matched.
func (r *PostgresRepository) Delete(ctx context.Context, userID, jobID string) error {
	query := `DELETE FROM applications WHERE user_id = $1 AND job_id = $2`
	res, err := r.db.ExecContext(ctx, query, userID, jobID)
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

// UpdateStatus rewrites the status column. Returns common.ErrorNotFound for
// unknown ids.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error {
	query := `
		UPDATE applications SET status = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, status)
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

// ListByUser returns the user's applications, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Application, error) {
	query := `SELECT ` + appColumns + ` FROM applications WHERE user_id = $1 ORDER BY applied_at DESC`
	return r.list(ctx, query, userID)
}

// ListByJob returns a posting's applications, oldest first, the order a
// recruiter reviews them in.
func (r *PostgresRepository) ListByJob(ctx context.Context, jobID string) ([]*models.Application, error) {
	query := `SELECT ` + appColumns + ` FROM applications WHERE job_id = $1 ORDER BY applied_at ASC`
	return r.list(ctx, query, jobID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Application, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, app)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListByUserWithJobs left-joins each application to its posting so the list
// survives job deletion; vanished postings yield a nil Job.
func (r *PostgresRepository) ListByUserWithJobs(ctx context.Context, userID string) ([]*models.ApplicationWithJob, error) {
	query := `
		SELECT a.id, a.user_id, a.job_id, a.status, a.cover_letter, a.resume_key,
		       a.applied_at, a.updated_at,
		       j.id, j.owner_id, j.title, j.company, j.location, j.description,
		       j.application_count, j.active, j.created_at, j.updated_at
		FROM applications a
		LEFT JOIN jobs j ON j.id = a.job_id
		WHERE a.user_id = $1
		ORDER BY a.applied_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.ApplicationWithJob
	for rows.Next() {
		app := &models.Application{}
		var (
			jobID, ownerID, title, company, location, description sql.NullString
			count                                                 sql.NullInt64
			active                                                sql.NullBool
			createdAt, updatedAt                                  sql.NullTime
		)
		err := rows.Scan(
			&app.ID, &app.UserID, &app.JobID, &app.Status,
			&app.CoverLetter, &app.ResumeKey, &app.AppliedAt, &app.UpdatedAt,
			&jobID, &ownerID, &title, &company, &location, &description,
			&count, &active, &createdAt, &updatedAt,
		)
		if err != nil {
			return nil, err
		}
		entry := &models.ApplicationWithJob{Application: app}
		if jobID.Valid {
			entry.Job = &models.Job{
				ID:               jobID.String,
				OwnerID:          ownerID.String,
				Title:            title.String,
				Company:          company.String,
				Location:         location.String,
				Description:      description.String,
				ApplicationCount: int(count.Int64),
				Active:           active.Bool,
				CreatedAt:        createdAt.Time,
				UpdatedAt:        updatedAt.Time,
			}
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
