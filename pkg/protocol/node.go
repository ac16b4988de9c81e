// Package protocol defines the interfaces and contracts between the engine
// and its pluggable parts: node executors, external capabilities, and the
// notification dispatcher.
package protocol

import (
	"context"

	"github.com/lexflow/lexflow/pkg/models"
)

// NodeExecutor executes one node type. Executors receive a read-only
// snapshot of instance data and return a result value; they never mutate
// instance state directly.
type NodeExecutor interface {
	// Type returns the node type this executor handles.
	Type() models.NodeType

	// Execute runs the node against the data snapshot.
	Execute(ctx context.Context, node *models.WorkflowNode, snapshot map[string]any) (models.ExecutionResult, error)
}

// NodeExecutorFactory builds a NodeExecutor and describes the configuration
// it accepts.
type NodeExecutorFactory interface {
	// Type returns the node type the produced executors handle.
	Type() models.NodeType

	// Create builds an executor bound to the engine's collaborators.
	Create(ctx context.Context) (NodeExecutor, error)

	// ConfigSchema returns the JSON schema for the node's config section,
	// or nil when the node type carries no configuration.
	ConfigSchema() map[string]any
}
