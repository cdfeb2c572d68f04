package roles

import (
	"context"

	"github.com/employnext/jobcore/internal/models"
)

// Repository is the persisted userID→role mapping. It satisfies
// identity.RoleStore, so the resolver can consume a postgres-backed
// repository directly.
type Repository interface {
	// Get returns the user's role record, or common.ErrorNotFound when the
	// user has none (e.g. first federated login).
	Get(ctx context.Context, userID string) (models.Role, error)
	// Set writes the role record. Used only by the registration flow.
	Set(ctx context.Context, userID string, role models.Role) error
}
