package models

import (
	"errors"
	"fmt"
)

// ErrValidation represents a validation error with field and message.
type ErrValidation struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ErrValidation) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Common validation errors for models.
var (
	// ErrURLRequired indicates a required URL field is empty.
	ErrURLRequired = errors.New("url is required")

	// ErrURLHashMismatch indicates the stored hash does not belong to the URL.
	ErrURLHashMismatch = errors.New("url_hash does not match url")

	// ErrInvalidKind indicates an unknown media kind.
	ErrInvalidKind = errors.New("invalid media kind")
)

// ErrViewNotFound indicates no view exists for the given id.
var ErrViewNotFound = errors.New("view not found")
