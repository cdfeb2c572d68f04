package savedjobs

import (
	"context"

	"github.com/employnext/jobcore/internal/models"
)

// Repository stores set membership for per-user saved jobs. Save and Unsave
// are idempotent; neither reports an error when the membership is already in
// the requested state.
type Repository interface {
	Save(ctx context.Context, userID, jobID string) error
	Unsave(ctx context.Context, userID, jobID string) error
	IsSaved(ctx context.Context, userID, jobID string) (bool, error)
	// List returns the user's saved postings, most recently saved first.
	// Memberships whose posting has been deleted are omitted.
	List(ctx context.Context, userID string) ([]*models.Job, error)
	// Entries returns the raw membership rows, including ones whose posting
	// no longer exists.
	Entries(ctx context.Context, userID string) ([]*models.SavedJobEntry, error)
}
