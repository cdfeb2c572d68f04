package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/employnext/jobcore/internal/auth"
	"github.com/employnext/jobcore/internal/common"
	"github.com/employnext/jobcore/internal/config"
	"github.com/employnext/jobcore/internal/dbx"
	"github.com/employnext/jobcore/internal/logging"
	"github.com/employnext/jobcore/internal/models"
	"github.com/employnext/jobcore/internal/repositories/repomanager"
	"github.com/google/uuid"
)

// RegistrationService creates accounts and mints session tokens. The account
// row and its role record commit in one transaction, so a user can never be
// observed without a role record after registration completes.
type RegistrationService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	log                          logging.Logger
	jwtSecret                    []byte
	sessionTokenValidityDuration time.Duration
}

// NewRegistrationService constructs a RegistrationService from server config.
func NewRegistrationService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger, cfg *config.Config) *RegistrationService {
	return &RegistrationService{
		db:                           db,
		repomanager:                  m,
		log:                          log,
		jwtSecret:                    []byte(cfg.SecretKey),
		sessionTokenValidityDuration: cfg.SessionTokenValidityDuration,
	}
}

// Register creates the user and its role record together and returns the
// user plus a fresh session token. The chosen role is permanent.
func (s *RegistrationService) Register(ctx context.Context, email, displayName string, role models.Role) (*models.User, string, error) {
	if !role.Valid() {
		return nil, "", fmt.Errorf("invalid role %q", role)
	}
	if email == "" {
		return nil, "", errors.New("email is required")
	}

	var user *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Users(tx).Create(ctx, &models.User{
			Email:       email,
			DisplayName: displayName,
		})
		if err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}
		if err := s.repomanager.Roles(tx).Set(ctx, created.ID, role); err != nil {
			return fmt.Errorf("error writing role record: %w", err)
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.mintToken(user, role, false)
	if err != nil {
		return nil, "", common.ErrorInternal
	}
	s.log.Info(ctx, "user registered", "user_id", user.ID, "role", role)
	return user, token, nil
}

// SignIn resolves an existing account by email and returns a fresh session
// token carrying its effective role. Unknown emails are unauthenticated, not
// not-found, so the response does not leak account existence.
func (s *RegistrationService) SignIn(ctx context.Context, email string) (*models.User, string, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", common.ErrorUnauthenticated
		}
		return nil, "", common.ErrorInternal
	}

	role, err := s.EnsureRole(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	token, err := s.mintToken(user, role, false)
	if err != nil {
		return nil, "", common.ErrorInternal
	}
	return user, token, nil
}

// GuestSession mints a session token for a demo overlay in the given role.
// Nothing is persisted; the principal exists only inside the token.
func (s *RegistrationService) GuestSession(role models.Role) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("invalid role %q", role)
	}
	return auth.GenerateToken(auth.Session{
		UserID:      "guest-" + uuid.NewString(),
		DisplayName: "Guest",
		Role:        role,
		Guest:       true,
	}, s.jwtSecret, s.sessionTokenValidityDuration)
}

// EnsureRole returns the user's persisted role, writing the candidate
// default for accounts that predate role records.
func (s *RegistrationService) EnsureRole(ctx context.Context, userID string) (models.Role, error) {
	role, err := s.repomanager.Roles(s.db).Get(ctx, userID)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return "", err
	}
	if err := s.repomanager.Roles(s.db).Set(ctx, userID, models.RoleCandidate); err != nil {
		return "", err
	}
	s.log.Warn(ctx, "missing role record backfilled", "user_id", userID)
	return models.RoleCandidate, nil
}

func (s *RegistrationService) mintToken(user *models.User, role models.Role, guest bool) (string, error) {
	return auth.GenerateToken(auth.Session{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Role:        role,
		Guest:       guest,
	}, s.jwtSecret, s.sessionTokenValidityDuration)
}
