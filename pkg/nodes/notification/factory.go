package notification

import (
	"context"

	"github.com/lexflow/lexflow/pkg/models"
	"github.com/lexflow/lexflow/pkg/protocol"
)

type Factory struct {
	dispatcher protocol.Dispatcher
}

func NewFactory(dispatcher protocol.Dispatcher) *Factory {
	return &Factory{dispatcher: dispatcher}
}

func (f *Factory) Type() models.NodeType {
	return models.NodeTypeNotification
}

func (f *Factory) Create(_ context.Context) (protocol.NodeExecutor, error) {
	return NewExecutor(f.dispatcher), nil
}

func (f *Factory) ConfigSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"recipients", "template"},
		"properties": map[string]any{
			"recipients": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    map[string]any{"type": "string"},
			},
			"template": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Template identifier resolved by the dispatcher",
			},
			"max_attempts": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"description": "Retry budget for transient dispatch failures (default 3)",
			},
		},
	}
}
