package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrInvalidState indicates an operation was attempted against a
	// workflow or section in a state that does not permit it (for
	// example approving a step that is not awaiting approval).
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrRunActive indicates a workflow run is already executing for
	// the project, so a new run cannot be started.
	ErrRunActive = errors.New("workflow run already active")
)

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (section, project, comment)
	ResourceID   string // ID of the existing/conflicting resource
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// StepError wraps a failure inside a workflow step so callers can tell
// which step failed.
type StepError struct {
	Step int
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// VersionError wraps a failure inside a version-control operation.
// A history read that fails must error loudly rather than silently
// returning an empty or wrong history.
type VersionError struct {
	Op  string // create, reconstruct, compare, rollback
	Err error
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("version %s: %v", e.Op, e.Err)
}

func (e *VersionError) Unwrap() error { return e.Err }
