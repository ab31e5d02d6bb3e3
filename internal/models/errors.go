package models

import "errors"

var (
	// ErrValidation marks a malformed answer or exercise shape. It is
	// recovered locally and scored as an incorrect answer.
	ErrValidation = errors.New("validation error")

	// ErrPersistenceConflict marks a mastery commit that lost a race with
	// another commit for the same key. Callers may retry.
	ErrPersistenceConflict = errors.New("persistence conflict")
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}
