package models

import "time"

// ApplicationStatus is set by the job's owning recruiter; candidates only
// create and cancel applications.
type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusInterview ApplicationStatus = "interview"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusInterview, ApplicationStatusRejected:
		return true
	}
	return false
}

// Application links a candidate to a job. At most one application may exist
// per (UserID, JobID) pair; cancellation hard-deletes the row.
type Application struct {
	ID          string
	UserID      string
	JobID       string
	Status      ApplicationStatus
	CoverLetter string
	ResumeKey   string
	AppliedAt   time.Time
	UpdatedAt   time.Time
}

// ApplicationWithJob pairs an application with its posting. Job is nil when
// the posting has been deleted since the candidate applied.
type ApplicationWithJob struct {
	Application *Application
	Job         *Job
}

// SavedJobEntry is a membership record in a user's saved-job set.
type SavedJobEntry struct {
	UserID  string
	JobID   string
	SavedAt time.Time
}
