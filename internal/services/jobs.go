package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/employnext/jobcore/internal/common"
	"github.com/employnext/jobcore/internal/logging"
	"github.com/employnext/jobcore/internal/models"
	"github.com/employnext/jobcore/internal/repositories/repomanager"
)

// JobInput carries the recruiter-supplied fields of a posting.
type JobInput struct {
	Title       string
	Company     string
	Location    string
	Description string
}

// JobService manages postings. Creation and mutation are owner-only;
// browsing is open to any session, including guests.
type JobService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

// NewJobService constructs a JobService.
func NewJobService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *JobService {
	return &JobService{db: db, repomanager: m, log: log}
}

// requireRecruiter rejects sessions that may not own postings.
func requireRecruiter(identity models.ResolvedIdentity) error {
	if !identity.IsAuthenticated || identity.UserID == "" {
		return common.ErrorUnauthenticated
	}
	if identity.IsGuest {
		return common.ErrorForbidden
	}
	if identity.EffectiveRole != models.RoleRecruiter {
		return common.ErrorForbidden
	}
	return nil
}

// Create publishes a posting owned by identity.
func (s *JobService) Create(ctx context.Context, identity models.ResolvedIdentity, input JobInput) (*models.Job, error) {
	if err := requireRecruiter(identity); err != nil {
		return nil, err
	}
	if input.Title == "" {
		return nil, errors.New("title is required")
	}
	job, err := s.repomanager.Jobs(s.db).Create(ctx, &models.Job{
		OwnerID:     identity.UserID,
		Title:       input.Title,
		Company:     input.Company,
		Location:    input.Location,
		Description: input.Description,
		Active:      true,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "job posted", "job_id", job.ID, "owner_id", identity.UserID)
	return job, nil
}

// Get returns a posting by id. Open to every session.
func (s *JobService) Get(ctx context.Context, id string) (*models.Job, error) {
	return s.repomanager.Jobs(s.db).Get(ctx, id)
}

// ListActive returns browsable postings, newest first. Open to every
// session.
func (s *JobService) ListActive(ctx context.Context) ([]*models.Job, error) {
	return s.repomanager.Jobs(s.db).ListActive(ctx)
}

// ListOwn returns the recruiter's own postings, active or not.
func (s *JobService) ListOwn(ctx context.Context, identity models.ResolvedIdentity) ([]*models.Job, error) {
	if err := requireRecruiter(identity); err != nil {
		return nil, err
	}
	return s.repomanager.Jobs(s.db).ListByOwner(ctx, identity.UserID)
}

// SetActive toggles a posting's visibility. Existing applications are kept
// either way.
func (s *JobService) SetActive(ctx context.Context, identity models.ResolvedIdentity, jobID string, active bool) error {
	if err := s.requireOwner(ctx, identity, jobID); err != nil {
		return err
	}
	return s.repomanager.Jobs(s.db).SetActive(ctx, jobID, active)
}

// Delete removes a posting. Applications pointing at it are left orphaned
// until their candidates cancel them.
func (s *JobService) Delete(ctx context.Context, identity models.ResolvedIdentity, jobID string) error {
	if err := s.requireOwner(ctx, identity, jobID); err != nil {
		return err
	}
	if err := s.repomanager.Jobs(s.db).Delete(ctx, jobID); err != nil {
		return err
	}
	s.log.Info(ctx, "job deleted", "job_id", jobID, "owner_id", identity.UserID)
	return nil
}

func (s *JobService) requireOwner(ctx context.Context, identity models.ResolvedIdentity, jobID string) error {
	if err := requireRecruiter(identity); err != nil {
		return err
	}
	job, err := s.repomanager.Jobs(s.db).Get(ctx, jobID)
	if err != nil {
		return err
	}
	if job.OwnerID != identity.UserID {
		return common.ErrorForbidden
	}
	return nil
}
