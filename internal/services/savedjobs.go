package services

import (
	"context"
	"database/sql"

	"github.com/employnext/jobcore/internal/logging"
	"github.com/employnext/jobcore/internal/metrics"
	"github.com/employnext/jobcore/internal/models"
	"github.com/employnext/jobcore/internal/repositories/repomanager"
)

// SavedJobService maintains the per-user saved-job set. Save and Unsave are
// idempotent, so the UI can toggle without first reading the current state.
type SavedJobService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	rec         metrics.Recorder
}

// NewSavedJobService constructs a SavedJobService.
func NewSavedJobService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger, rec metrics.Recorder) *SavedJobService {
	return &SavedJobService{db: db, repomanager: m, log: log, rec: rec}
}

// Save adds jobID to identity's set. Saving twice is a no-op.
func (s *SavedJobService) Save(ctx context.Context, identity models.ResolvedIdentity, jobID string) error {
	if err := requireCandidate(identity); err != nil {
		return err
	}
	if err := s.repomanager.SavedJobs(s.db).Save(ctx, identity.UserID, jobID); err != nil {
		return err
	}
	s.rec.RecordSavedJobOp("save")
	s.log.Debug(ctx, "job saved", "job_id", jobID, "user_id", identity.UserID)
	return nil
}

// Unsave removes jobID from identity's set. Removing an absent entry is a
// no-op.
func (s *SavedJobService) Unsave(ctx context.Context, identity models.ResolvedIdentity, jobID string) error {
	if err := requireCandidate(identity); err != nil {
		return err
	}
	if err := s.repomanager.SavedJobs(s.db).Unsave(ctx, identity.UserID, jobID); err != nil {
		return err
	}
	s.rec.RecordSavedJobOp("unsave")
	s.log.Debug(ctx, "job unsaved", "job_id", jobID, "user_id", identity.UserID)
	return nil
}

// IsSaved reports membership. Guests and signed-out sessions have an empty
// set.
func (s *SavedJobService) IsSaved(ctx context.Context, identity models.ResolvedIdentity, jobID string) (bool, error) {
	if err := requireCandidate(identity); err != nil {
		return false, nil
	}
	return s.repomanager.SavedJobs(s.db).IsSaved(ctx, identity.UserID, jobID)
}

// List returns identity's saved postings, most recently saved first. Entries
// whose posting has been deleted are dropped from the view; their membership
// rows remain until explicitly unsaved.
func (s *SavedJobService) List(ctx context.Context, identity models.ResolvedIdentity) ([]*models.Job, error) {
	if err := requireCandidate(identity); err != nil {
		return nil, err
	}
	return s.repomanager.SavedJobs(s.db).List(ctx, identity.UserID)
}
