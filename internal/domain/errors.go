package domain

import (
	"errors"
	"fmt"
)

var (
	ErrURLNotFound       = errors.New("url not found")
	ErrURLExpired        = errors.New("url has expired")
	ErrInvalidURL        = errors.New("invalid url")
	ErrInvalidShortCode  = errors.New("invalid short code")
	ErrShortCodeExists   = errors.New("short code already exists")
	ErrTooManyCollisions = errors.New("short code generation exceeded collision retry limit")
	ErrRecorderClosed    = errors.New("click recorder is not accepting work")
	ErrOperationNotFound = errors.New("operation not found")
	ErrOperationFinished = errors.New("operation already finished")
)

// RepositoryError wraps a storage failure so callers can distinguish
// infrastructure problems from domain-level conditions.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError wraps err with the repository operation that failed.
func NewRepositoryError(op string, err error) *RepositoryError {
	return &RepositoryError{Op: op, Err: err}
}
