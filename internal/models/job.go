package models

import "time"

// Job is a posting owned by exactly one recruiter. ApplicationCount is
// denormalized and is written only through the application tracker's atomic
// unit, never directly.
type Job struct {
	ID               string
	OwnerID          string
	Title            string
	Company          string
	Location         string
	Description      string
	ApplicationCount int
	Active           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
