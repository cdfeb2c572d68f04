package jobs

import (
	"context"

	"github.com/employnext/jobcore/internal/models"
)

type Repository interface {
	Create(ctx context.Context, job *models.Job) (*models.Job, error)
	Get(ctx context.Context, id string) (*models.Job, error)
	ListActive(ctx context.Context) ([]*models.Job, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Job, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error

	// AdjustApplicationCount is the only write path to the denormalized
	// counter. It adds delta and floors the result at zero, atomically.
	// The returned bool reports whether the job row still exists.
	AdjustApplicationCount(ctx context.Context, id string, delta int) (bool, error)
}
