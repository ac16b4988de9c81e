// Package registry holds the engine's pluggable components: node executor
// factories keyed by node type and external capabilities keyed by name.
// The registry is constructed explicitly and passed by reference; there is
// no process-wide singleton.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lexflow/lexflow/pkg/models"
	"github.com/lexflow/lexflow/pkg/protocol"
)

type Registry struct {
	logger       *slog.Logger
	executors    map[models.NodeType]protocol.NodeExecutorFactory
	capabilities map[string]protocol.Capability
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:       logger.With("module", "registry"),
		executors:    make(map[models.NodeType]protocol.NodeExecutorFactory),
		capabilities: make(map[string]protocol.Capability),
	}
}

func (r *Registry) RegisterExecutor(factory protocol.NodeExecutorFactory) {
	r.executors[factory.Type()] = factory
}

func (r *Registry) RegisterCapability(capability protocol.Capability) {
	r.capabilities[capability.Name()] = capability
}

// CreateExecutor builds the executor for the given node type.
func (r *Registry) CreateExecutor(ctx context.Context, nodeType models.NodeType) (protocol.NodeExecutor, error) {
	factory, ok := r.executors[nodeType]
	if !ok {
		return nil, fmt.Errorf("node type %q not registered", nodeType)
	}

	return factory.Create(ctx)
}

// ResolveCapability implements protocol.CapabilityResolver.
func (r *Registry) ResolveCapability(name string) (protocol.Capability, error) {
	capability, ok := r.capabilities[name]
	if !ok {
		return nil, fmt.Errorf("capability %q not registered", name)
	}

	return capability, nil
}

// ConfigSchema returns the config schema for a node type, or nil.
func (r *Registry) ConfigSchema(nodeType models.NodeType) (map[string]any, bool) {
	factory, ok := r.executors[nodeType]
	if !ok {
		return nil, false
	}

	return factory.ConfigSchema(), true
}

// HealthCheck reports whether every engine node type has a registered
// executor factory.
func (r *Registry) HealthCheck() (string, bool) {
	required := []models.NodeType{
		models.NodeTypeStart,
		models.NodeTypeProcess,
		models.NodeTypeDecision,
		models.NodeTypeNotification,
		models.NodeTypeEnd,
	}

	for _, nodeType := range required {
		if _, ok := r.executors[nodeType]; !ok {
			return fmt.Sprintf("node type %q has no registered executor", nodeType), false
		}
	}

	return "All node executors registered", true
}
