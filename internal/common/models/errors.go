// internal/common/models/errors.go
// Error taxonomy shared by every feed component

package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation              = errors.New("validation failed")
	ErrReferencedEntityMissing = errors.New("referenced entity does not exist")
	ErrInvalidOption           = errors.New("poll option is out of range")
	ErrVotingClosed            = errors.New("poll voting window has closed")
	ErrDuplicateVote           = errors.New("you have already voted on this poll")
	ErrNotFound                = errors.New("not found")
	ErrForbidden               = errors.New("forbidden")
	ErrUnauthenticated         = errors.New("authentication required")
)

// ValidationError carries one message per offending field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, message string) error {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// MissingReference reports a dangling foreign reference such as an unknown creator.
func MissingReference(entity, id string) error {
	return fmt.Errorf("%s %q: %w", entity, id, ErrReferencedEntityMissing)
}
