package models

import (
	"errors"
	"fmt"
)

// Error kinds returned by the pipeline. Match with errors.Is.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInsufficientData = errors.New("insufficient data")
	ErrEmptyInput       = errors.New("empty input")
	ErrAllSourcesFailed = errors.New("all price sources failed")
)

// FieldError is an InvalidInput error naming the offending field
type FieldError struct {
	Field  string
	Reason string
}

// Error implements the error interface
func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidInput
func (e *FieldError) Unwrap() error {
	return ErrInvalidInput
}

// InvalidField builds a FieldError
func InvalidField(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

// InsufficientData builds an ErrInsufficientData error with counts
func InsufficientData(what string, need, got int) error {
	return fmt.Errorf("%w: %s requires at least %d points, got %d", ErrInsufficientData, what, need, got)
}
