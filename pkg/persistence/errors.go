// Package persistence provides standardized error types for store operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations use.
var (
	// ErrDefinitionNotFound indicates no definition exists for the given id
	// (or id and version).
	ErrDefinitionNotFound = errors.New("workflow definition not found")

	// ErrDefinitionVersionExists indicates an attempt to overwrite an
	// existing (id, version) pair. Definition versions are append-only.
	ErrDefinitionVersionExists = errors.New("workflow definition version already exists")

	// ErrInstanceNotFound indicates an instance was not found by id.
	ErrInstanceNotFound = errors.New("workflow instance not found")

	// ErrInstanceExists indicates an instance with the same id already exists.
	ErrInstanceExists = errors.New("workflow instance already exists")

	// ErrTransitionConflict indicates a concurrent advance raced ahead: the
	// stored current node no longer matches the transition's expectation.
	ErrTransitionConflict = errors.New("instance transition conflict")

	// ErrInstanceTerminal indicates an operation on a completed or failed
	// instance.
	ErrInstanceTerminal = errors.New("instance is terminal")

	// ErrInvalidStatusChange indicates a pause/resume/cancel from a status
	// the change does not permit.
	ErrInvalidStatusChange = errors.New("invalid instance status change")
)

// InstanceError wraps instance-store errors with operation context.
type InstanceError struct {
	Op         string
	InstanceID string
	Err        error
}

func (e *InstanceError) Error() string {
	return fmt.Sprintf("%s operation failed for instance %s: %v", e.Op, e.InstanceID, e.Err)
}

func (e *InstanceError) Unwrap() error {
	return e.Err
}

func (e *InstanceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewInstanceError creates a new instance error with context.
func NewInstanceError(op, instanceID string, err error) *InstanceError {
	return &InstanceError{Op: op, InstanceID: instanceID, Err: err}
}

// DefinitionError wraps definition-store errors with operation context.
type DefinitionError struct {
	Op           string
	DefinitionID string
	Version      int
	Err          error
}

func (e *DefinitionError) Error() string {
	if e.Version > 0 {
		return fmt.Sprintf("%s operation failed for definition %s v%d: %v", e.Op, e.DefinitionID, e.Version, e.Err)
	}

	return fmt.Sprintf("%s operation failed for definition %s: %v", e.Op, e.DefinitionID, e.Err)
}

func (e *DefinitionError) Unwrap() error {
	return e.Err
}

func (e *DefinitionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewDefinitionError creates a new definition error with context.
func NewDefinitionError(op, definitionID string, version int, err error) *DefinitionError {
	return &DefinitionError{Op: op, DefinitionID: definitionID, Version: version, Err: err}
}

// IsDefinitionNotFound checks if an error indicates a missing definition.
func IsDefinitionNotFound(err error) bool {
	return errors.Is(err, ErrDefinitionNotFound)
}

// IsInstanceNotFound checks if an error indicates a missing instance.
func IsInstanceNotFound(err error) bool {
	return errors.Is(err, ErrInstanceNotFound)
}

// IsTransitionConflict checks if an error indicates a lost optimistic-
// concurrency race.
func IsTransitionConflict(err error) bool {
	return errors.Is(err, ErrTransitionConflict)
}

// IsInstanceTerminal checks if an error indicates the instance already
// finished.
func IsInstanceTerminal(err error) bool {
	return errors.Is(err, ErrInstanceTerminal)
}
