package process

import (
	"context"

	"github.com/lexflow/lexflow/pkg/models"
	"github.com/lexflow/lexflow/pkg/protocol"
)

type Factory struct {
	resolver protocol.CapabilityResolver
}

func NewFactory(resolver protocol.CapabilityResolver) *Factory {
	return &Factory{resolver: resolver}
}

func (f *Factory) Type() models.NodeType {
	return models.NodeTypeProcess
}

func (f *Factory) Create(_ context.Context) (protocol.NodeExecutor, error) {
	return NewExecutor(f.resolver), nil
}

func (f *Factory) ConfigSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"capability"},
		"properties": map[string]any{
			"capability": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Name of the registered external capability to invoke",
			},
			"parameters": map[string]any{
				"type":        "object",
				"description": "Opaque parameters forwarded to the capability",
			},
			"timeout_ms": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"description": "Invocation timeout in milliseconds (default 30000)",
			},
			"max_attempts": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"description": "Retry budget for transient failures (default 3)",
			},
		},
	}
}
