// Package services contains the business logic behind the HTTP surface:
// application tracking, saved jobs, registration, and resume storage.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/employnext/jobcore/internal/common"
	"github.com/employnext/jobcore/internal/dbx"
	"github.com/employnext/jobcore/internal/logging"
	"github.com/employnext/jobcore/internal/metrics"
	"github.com/employnext/jobcore/internal/models"
	"github.com/employnext/jobcore/internal/repositories/repomanager"
	"github.com/sethvargo/go-retry"
)

// retryBackoff is the pause before the single retry of a failed storage
// operation.
const retryBackoff = 100 * time.Millisecond

// ApplyInput carries the candidate-supplied fields of a new application.
type ApplyInput struct {
	JobID       string
	CoverLetter string
	ResumeKey   string
}

// TrackerService implements the application lifecycle: submit, cancel,
// status updates by the posting's owner, and the list views. All writes that
// touch both an application row and the posting's applicant counter run in
// one transaction.
type TrackerService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	rec         metrics.Recorder
}

// NewTrackerService constructs a TrackerService.
func NewTrackerService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger, rec metrics.Recorder) *TrackerService {
	return &TrackerService{db: db, repomanager: m, log: log, rec: rec}
}

// requireCandidate rejects sessions that may not own applications: guests
// are forbidden, signed-out sessions are unauthenticated.
func requireCandidate(identity models.ResolvedIdentity) error {
	if !identity.IsAuthenticated || identity.UserID == "" {
		return common.ErrorUnauthenticated
	}
	if identity.IsGuest {
		return common.ErrorForbidden
	}
	return nil
}

// terminal reports whether err must not be retried: the outcome will be the
// same on a second attempt.
func terminal(err error) bool {
	return errors.Is(err, common.ErrorAlreadyApplied) ||
		errors.Is(err, common.ErrorNotFound) ||
		errors.Is(err, common.ErrorForbidden) ||
		errors.Is(err, common.ErrorUnauthenticated)
}

// retryOnce runs fn, retrying exactly once unless the failure is terminal.
// A failure that survives the retry comes back wrapped in ErrorTransient.
func (s *TrackerService) retryOnce(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(1, retry.NewConstant(retryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil || terminal(err) {
			return err
		}
		s.log.Warn(ctx, "storage operation failed, retrying", "op", op, "error", err)
		return retry.RetryableError(err)
	})
	if err == nil || terminal(err) {
		return err
	}
	s.log.Error(ctx, "storage operation failed after retry", "op", op, "error", err)
	return fmt.Errorf("%w: %v", common.ErrorTransient, err)
}

// Apply submits an application for identity against jobID. The application
// row and the counter increment commit together; a concurrent duplicate is
// stopped by the unique (user_id, job_id) index and surfaces as
// ErrorAlreadyApplied. Applying to a deactivated posting is allowed; applying
// to a deleted one is ErrorNotFound.
func (s *TrackerService) Apply(ctx context.Context, identity models.ResolvedIdentity, input ApplyInput) (*models.Application, error) {
	if err := requireCandidate(identity); err != nil {
		return nil, err
	}

	start := time.Now()
	var app *models.Application
	err := s.retryOnce(ctx, "apply", func(ctx context.Context) error {
		app = nil
		return dbx.WithReadCommitted(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
			created, err := s.repomanager.Applications(tx).Create(ctx, &models.Application{
				UserID:      identity.UserID,
				JobID:       input.JobID,
				Status:      models.ApplicationStatusPending,
				CoverLetter: input.CoverLetter,
				ResumeKey:   input.ResumeKey,
			})
			if err != nil {
				return err
			}
			ok, err := s.repomanager.Jobs(tx).AdjustApplicationCount(ctx, input.JobID, 1)
			if err != nil {
				return err
			}
			if !ok {
				return common.ErrorNotFound
			}
			app = created
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyApplied) {
			s.rec.RecordApplicationConflict()
		}
		return nil, err
	}

	s.rec.RecordApplicationSubmitted()
	s.rec.RecordApplyLatency(time.Since(start))
	s.log.Info(ctx, "application submitted", "job_id", input.JobID, "user_id", identity.UserID)
	return app, nil
}

// Cancel withdraws identity's application for jobID, hard-deleting the row.
// When the posting still exists its counter is decremented in the same
// transaction; when it has been deleted the orphaned row is simply removed.
// A second cancel for the same pair is ErrorNotFound.
func (s *TrackerService) Cancel(ctx context.Context, identity models.ResolvedIdentity, jobID string) error {
	if err := requireCandidate(identity); err != nil {
		return err
	}

	err := s.retryOnce(ctx, "cancel", func(ctx context.Context) error {
		return dbx.WithReadCommitted(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
			if err := s.repomanager.Applications(tx).Delete(ctx, identity.UserID, jobID); err != nil {
				return err
			}
			// The counter update is a no-op when the posting is gone.
			_, err := s.repomanager.Jobs(tx).AdjustApplicationCount(ctx, jobID, -1)
			return err
		})
	})
	if err != nil {
		return err
	}

	s.rec.RecordApplicationCancelled()
	s.log.Info(ctx, "application cancelled", "job_id", jobID, "user_id", identity.UserID)
	return nil
}

// HasApplied reports whether identity currently has an application for jobID.
// Guests and signed-out sessions have none.
func (s *TrackerService) HasApplied(ctx context.Context, identity models.ResolvedIdentity, jobID string) (bool, error) {
	if err := requireCandidate(identity); err != nil {
		return false, nil
	}
	_, err := s.repomanager.Applications(s.db).FindByUserAndJob(ctx, identity.UserID, jobID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// UpdateStatus lets the posting's owner move an application between statuses.
// Only the recruiter who owns the job may call it; a rejected application
// stays in place and keeps blocking re-application until the candidate
// cancels it.
func (s *TrackerService) UpdateStatus(ctx context.Context, identity models.ResolvedIdentity, applicationID string, status models.ApplicationStatus) error {
	if !identity.IsAuthenticated || identity.UserID == "" {
		return common.ErrorUnauthenticated
	}
	if identity.IsGuest {
		return common.ErrorForbidden
	}
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}

	app, err := s.repomanager.Applications(s.db).Get(ctx, applicationID)
	if err != nil {
		return err
	}
	job, err := s.repomanager.Jobs(s.db).Get(ctx, app.JobID)
	if err != nil {
		return err
	}
	if job.OwnerID != identity.UserID {
		return common.ErrorForbidden
	}

	if err := s.repomanager.Applications(s.db).UpdateStatus(ctx, applicationID, status); err != nil {
		return err
	}
	s.log.Info(ctx, "application status updated", "application_id", applicationID, "status", status)
	return nil
}

// GetForOwner returns an application to the recruiter who owns its posting.
// Used by the resume download flow, which needs the stored resume key after
// verifying ownership.
func (s *TrackerService) GetForOwner(ctx context.Context, identity models.ResolvedIdentity, applicationID string) (*models.Application, error) {
	if !identity.IsAuthenticated || identity.UserID == "" {
		return nil, common.ErrorUnauthenticated
	}
	if identity.IsGuest {
		return nil, common.ErrorForbidden
	}
	app, err := s.repomanager.Applications(s.db).Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	job, err := s.repomanager.Jobs(s.db).Get(ctx, app.JobID)
	if err != nil {
		return nil, err
	}
	if job.OwnerID != identity.UserID {
		return nil, common.ErrorForbidden
	}
	return app, nil
}

// ListByUser returns identity's applications joined with their postings.
// Applications to deleted postings come back with a nil Job.
func (s *TrackerService) ListByUser(ctx context.Context, identity models.ResolvedIdentity) ([]*models.ApplicationWithJob, error) {
	if err := requireCandidate(identity); err != nil {
		return nil, err
	}
	return s.repomanager.Applications(s.db).ListByUserWithJobs(ctx, identity.UserID)
}

// ListByJob returns a posting's applications for its owning recruiter.
func (s *TrackerService) ListByJob(ctx context.Context, identity models.ResolvedIdentity, jobID string) ([]*models.Application, error) {
	if !identity.IsAuthenticated || identity.UserID == "" {
		return nil, common.ErrorUnauthenticated
	}
	if identity.IsGuest {
		return nil, common.ErrorForbidden
	}
	job, err := s.repomanager.Jobs(s.db).Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.OwnerID != identity.UserID {
		return nil, common.ErrorForbidden
	}
	return s.repomanager.Applications(s.db).ListByJob(ctx, jobID)
}
