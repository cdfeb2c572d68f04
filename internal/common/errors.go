// Package common defines shared sentinel errors used across jobcore layers.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Principal errors. ErrorUnauthenticated means no authenticated user is
	// acting; ErrorForbidden means the acting user is not the required
	// principal (wrong applicant, not the job owner). Neither is retried.
	ErrorUnauthenticated = errors.New("unauthenticated")
	ErrorForbidden       = errors.New("forbidden")

	// ErrorAlreadyApplied reports a second application for the same
	// (user, job) pair. Terminal but recoverable by the caller.
	ErrorAlreadyApplied = errors.New("already applied")

	// ErrorTransient wraps storage failures that survived the tracker's
	// single retry. The operation may be retried by the caller.
	ErrorTransient = errors.New("transient storage failure")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Auth errors (invalid or malformed session token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
