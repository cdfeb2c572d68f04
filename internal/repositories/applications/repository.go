package applications

import (
	"context"

	"github.com/employnext/jobcore/internal/models"
)

// Repository stores one application row per (user, job) pair. A unique index
// enforces the pair at the storage level; Create surfaces a violation as
// common.ErrorAlreadyApplied.
type Repository interface {
	Create(ctx context.Context, app *models.Application) (*models.Application, error)
	Get(ctx context.Context, id string) (*models.Application, error)
	FindByUserAndJob(ctx context.Context, userID, jobID string) (*models.Application, error)
	// Delete hard-deletes the row. Returns common.ErrorNotFound when no row
	// matched, so a repeated cancel is distinguishable from the first.
	Delete(ctx context.Context, userID, jobID string) error
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error
	ListByUser(ctx context.Context, userID string) ([]*models.Application, error)
	ListByJob(ctx context.Context, jobID string) ([]*models.Application, error)
	// ListByUserWithJobs joins each application to its posting. Entries whose
	// posting has been deleted come back with a nil Job.
	ListByUserWithJobs(ctx context.Context, userID string) ([]*models.ApplicationWithJob, error)
}
