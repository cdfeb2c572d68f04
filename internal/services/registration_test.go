package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/employnext/jobcore/internal/auth"
	"github.com/employnext/jobcore/internal/common"
	"github.com/employnext/jobcore/internal/config"
	"github.com/employnext/jobcore/internal/models"
	"github.com/employnext/jobcore/internal/repositories/repomanager"
)

func newRegistration(t *testing.T) (*RegistrationService, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	cfg := &config.Config{SecretKey: "test-secret", SessionTokenValidityDuration: time.Hour}
	svc := NewRegistrationService(db, repomanager.NewPostgresRepositoryManager(), testLogger(), cfg)
	return svc, mock, db
}

func TestRegister_UserAndRoleCommitTogether(t *testing.T) {
	svc, mock, db := newRegistration(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WithArgs("Jordan", "jordan@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u-1", time.Now()))
	mock.ExpectExec(`INSERT\s+INTO\s+user_roles`).
		WithArgs("u-1", models.RoleRecruiter).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, token, err := svc.Register(context.Background(), "jordan@example.com", "Jordan", models.RoleRecruiter)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if user.ID != "u-1" {
		t.Fatalf("unexpected user: %+v", user)
	}

	session, err := auth.SessionFromToken(token, []byte("test-secret"))
	if err != nil {
		t.Fatalf("token should verify: %v", err)
	}
	if session.UserID != "u-1" || session.Role != models.RoleRecruiter || session.Guest {
		t.Fatalf("unexpected session: %+v", session)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestRegister_RoleWriteFailureRollsBackUser(t *testing.T) {
	svc, mock, db := newRegistration(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WithArgs("Jordan", "jordan@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u-1", time.Now()))
	mock.ExpectExec(`INSERT\s+INTO\s+user_roles`).
		WithArgs("u-1", models.RoleCandidate).
		WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	_, _, err := svc.Register(context.Background(), "jordan@example.com", "Jordan", models.RoleCandidate)
	if err == nil {
		t.Fatal("want error when role record cannot be written")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestRegister_InvalidRole(t *testing.T) {
	svc, _, db := newRegistration(t)
	defer db.Close()

	_, _, err := svc.Register(context.Background(), "x@example.com", "X", "admin")
	if err == nil {
		t.Fatal("want error for unknown role")
	}
}

func TestSignIn_UnknownEmail(t *testing.T) {
	svc, mock, db := newRegistration(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+.+\s+FROM\s+users\s+WHERE\s+email`).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, _, err := svc.SignIn(context.Background(), "ghost@example.com")
	if !errors.Is(err, common.ErrorUnauthenticated) {
		t.Fatalf("want common.ErrorUnauthenticated, got %v", err)
	}
}

func TestSignIn_MintsTokenWithPersistedRole(t *testing.T) {
	svc, mock, db := newRegistration(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+.+\s+FROM\s+users\s+WHERE\s+email`).
		WithArgs("jordan@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "display_name", "email", "created_at"}).
			AddRow("u-1", "Jordan", "jordan@example.com", time.Now()))
	mock.ExpectQuery(`SELECT\s+role\s+FROM\s+user_roles`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("recruiter"))

	_, token, err := svc.SignIn(context.Background(), "jordan@example.com")
	if err != nil {
		t.Fatalf("SignIn error: %v", err)
	}
	session, err := auth.SessionFromToken(token, []byte("test-secret"))
	if err != nil {
		t.Fatalf("token should verify: %v", err)
	}
	if session.Role != models.RoleRecruiter {
		t.Fatalf("want recruiter role in token, got %q", session.Role)
	}
}

func TestEnsureRole_BackfillsCandidate(t *testing.T) {
	svc, mock, db := newRegistration(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+role\s+FROM\s+user_roles`).
		WithArgs("u-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT\s+INTO\s+user_roles`).
		WithArgs("u-1", models.RoleCandidate).
		WillReturnResult(sqlmock.NewResult(0, 1))

	role, err := svc.EnsureRole(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("EnsureRole error: %v", err)
	}
	if role != models.RoleCandidate {
		t.Fatalf("want candidate default, got %q", role)
	}
}

func TestGuestSession_IsGuestToken(t *testing.T) {
	svc, _, db := newRegistration(t)
	defer db.Close()

	token, err := svc.GuestSession(models.RoleRecruiter)
	if err != nil {
		t.Fatalf("GuestSession error: %v", err)
	}
	session, err := auth.SessionFromToken(token, []byte("test-secret"))
	if err != nil {
		t.Fatalf("token should verify: %v", err)
	}
	if !session.Guest || session.Role != models.RoleRecruiter || session.UserID == "" {
		t.Fatalf("unexpected session: %+v", session)
	}
}
