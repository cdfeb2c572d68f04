package repomanager

import (
	"context"
	"database/sql"

	"github.com/employnext/jobcore/internal/dbx"
	"github.com/employnext/jobcore/internal/repositories/applications"
	"github.com/employnext/jobcore/internal/repositories/jobs"
	"github.com/employnext/jobcore/internal/repositories/roles"
	"github.com/employnext/jobcore/internal/repositories/savedjobs"
	"github.com/employnext/jobcore/internal/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX so a service can run
// several of them inside one transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Roles(db dbx.DBTX) roles.Repository
	Jobs(db dbx.DBTX) jobs.Repository
	Applications(db dbx.DBTX) applications.Repository
	SavedJobs(db dbx.DBTX) savedjobs.Repository
}
