// Package persistence provides the storage abstraction for workflow
// definitions and instances. The instance store is the engine's only shared
// mutable state; every transition goes through the optimistic-concurrency
// check in ApplyTransition.
package persistence

import (
	"context"
	"time"

	"github.com/lexflow/lexflow/pkg/models"
)

// Transition describes one instance state change produced by a node
// execution. ExpectedNodeID is the node the caller executed against: if the
// stored current node has moved on, the store rejects the transition with
// ErrTransitionConflict instead of silently overwriting.
type Transition struct {
	InstanceID     string
	ExpectedNodeID string

	// NextNodeID is the new current node; empty on terminal transitions.
	NextNodeID string

	Status        models.InstanceStatus
	DataDelta     map[string]any
	Entry         models.HistoryEntry
	FailureReason string
	CompletedAt   *time.Time
}

// StatusChange describes a manual lifecycle change (pause, resume, cancel).
// From lists the statuses the change is allowed to start at. Entry, when
// set, is appended to the instance history so terminal lifecycle changes
// leave an audit record alongside node executions.
type StatusChange struct {
	InstanceID    string
	From          []models.InstanceStatus
	To            models.InstanceStatus
	FailureReason string
	CompletedAt   *time.Time
	Entry         *models.HistoryEntry
}

type Persistence interface {
	// Definitions are append-only: a (id, version) pair is written once and
	// never overwritten.
	Definitions(ctx context.Context) ([]*models.WorkflowDefinition, error)
	SaveDefinition(ctx context.Context, definition *models.WorkflowDefinition) error
	DefinitionByID(ctx context.Context, id string) (*models.WorkflowDefinition, error)
	DefinitionByVersion(ctx context.Context, id string, version int) (*models.WorkflowDefinition, error)
	DefinitionsByTrigger(ctx context.Context, triggerEvent string) ([]*models.WorkflowDefinition, error)

	CreateInstance(ctx context.Context, instance *models.WorkflowInstance) error
	InstanceByID(ctx context.Context, id string) (*models.WorkflowInstance, error)
	ApplyTransition(ctx context.Context, transition Transition) error
	UpdateInstanceStatus(ctx context.Context, change StatusChange) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
