package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds matched with errors.Is against the typed errors below.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrMalformedImport   = errors.New("malformed import")
	// ErrConfirmationRequired is returned when deleting an institution that
	// still has essays attached and the caller did not confirm.
	ErrConfirmationRequired = errors.New("confirmation required")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError reports missing or invalid fields on save.
type ValidationError struct {
	Entity EntityType
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Error)
	}
	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(parts, "; "))
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Field returns the message recorded for name, if any.
func (e *ValidationError) Field(name string) (string, bool) {
	for _, f := range e.Fields {
		if f.Field == name {
			return f.Error, true
		}
	}
	return "", false
}

// NotFoundError is returned when an operation references an unknown id.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is matches ErrNotFound.
func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvalidTransitionError reports a status change outside the transition table.
type InvalidTransitionError struct {
	InstitutionID string
	From          ApplicationStatus
	To            ApplicationStatus
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("institution %s: cannot move from %s to %s", e.InstitutionID, e.From, e.To)
}

// Is matches ErrInvalidTransition.
func (e InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// MalformedImportError wraps the decode failure of an import payload.
type MalformedImportError struct {
	Err error
}

func (e *MalformedImportError) Error() string {
	if e.Err == nil {
		return ErrMalformedImport.Error()
	}
	return ErrMalformedImport.Error() + ": " + e.Err.Error()
}

// Unwrap returns the underlying decode error.
func (e *MalformedImportError) Unwrap() error { return e.Err }

// Is matches ErrMalformedImport.
func (e *MalformedImportError) Is(target error) bool { return target == ErrMalformedImport }

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return "transaction blocked by rules: " + v.Message
		}
	}
	return "transaction blocked by rules"
}
