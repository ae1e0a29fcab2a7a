// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package posts

import (
	"errors"
	"fmt"
)

var (
	// ErrForbidden is returned when the caller does not own the post.
	ErrForbidden = errors.New("not authorized to modify this post")

	// ErrNoRecord is wrapped by a PersistenceError when an update matched
	// no post.
	ErrNoRecord = errors.New("no record returned")

	// ErrNotCreated is wrapped by a PersistenceError when an insert
	// completed without returning the new post.
	ErrNotCreated = errors.New("post not created")
)

// ValidationError represents malformed or missing input, including an
// oversized thumbnail.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError represents a missing post or user.
type NotFoundError struct {
	Resource string // "post", "user"
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// StorageError wraps a media store failure on the primary write path.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PersistenceError wraps a repository failure on the primary write path.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsValidation checks if err is a validation error.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound checks if err is a not found error.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsForbidden checks if err is an ownership violation.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsStorage checks if err is a media store failure.
func IsStorage(err error) bool {
	var s *StorageError
	return errors.As(err, &s)
}

// IsPersistence checks if err is a repository failure.
func IsPersistence(err error) bool {
	var p *PersistenceError
	return errors.As(err, &p)
}

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
