package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/employnext/jobcore/internal/common"
	"github.com/employnext/jobcore/internal/metrics"
	"github.com/employnext/jobcore/internal/repositories/repomanager"
)

func newSavedJobs(t *testing.T) (*SavedJobService, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	svc := NewSavedJobService(db, repomanager.NewPostgresRepositoryManager(), testLogger(), metrics.Noop{})
	return svc, mock, db
}

func TestSave_Twice(t *testing.T) {
	svc, mock, db := newSavedJobs(t)
	defer db.Close()

	q := `INSERT\s+INTO\s+saved_jobs`
	mock.ExpectExec(q).WithArgs("u-1", "job-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("u-1", "job-1").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := svc.Save(context.Background(), candidate("u-1"), "job-1"); err != nil {
		t.Fatalf("first Save error: %v", err)
	}
	if err := svc.Save(context.Background(), candidate("u-1"), "job-1"); err != nil {
		t.Fatalf("second Save should be a no-op, got %v", err)
	}
}

func TestUnsave_Absent(t *testing.T) {
	svc, mock, db := newSavedJobs(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+saved_jobs`).
		WithArgs("u-1", "job-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := svc.Unsave(context.Background(), candidate("u-1"), "job-9"); err != nil {
		t.Fatalf("Unsave of absent entry should be a no-op, got %v", err)
	}
}

func TestSave_GuestForbidden(t *testing.T) {
	svc, _, db := newSavedJobs(t)
	defer db.Close()

	if err := svc.Save(context.Background(), guest("u-1"), "job-1"); !errors.Is(err, common.ErrorForbidden) {
		t.Fatalf("want common.ErrorForbidden, got %v", err)
	}
}

func TestIsSaved_SignedOutIsEmptySet(t *testing.T) {
	svc, _, db := newSavedJobs(t)
	defer db.Close()

	saved, err := svc.IsSaved(context.Background(), guest("u-1"), "job-1")
	if err != nil || saved {
		t.Fatalf("guest set must read empty, got %v / %v", saved, err)
	}
}

func TestList(t *testing.T) {
	svc, mock, db := newSavedJobs(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)SELECT\s+j\.id,.*FROM\s+saved_jobs\s+s`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "owner_id", "title", "company", "location", "description",
			"application_count", "active", "created_at", "updated_at",
		}).AddRow("job-1", "rec-1", "Go Engineer", "Acme", "Remote", "", 0, true, now, now))

	jobs, err := svc.List(context.Background(), candidate("u-1"))
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != "job-1" {
		t.Fatalf("unexpected result: %+v", jobs)
	}
}
