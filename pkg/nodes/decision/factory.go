package decision

import (
	"context"

	"github.com/lexflow/lexflow/pkg/models"
	"github.com/lexflow/lexflow/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Type() models.NodeType {
	return models.NodeTypeDecision
}

func (f *Factory) Create(_ context.Context) (protocol.NodeExecutor, error) {
	return NewExecutor(), nil
}

func (f *Factory) ConfigSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"expression"},
		"properties": map[string]any{
			"expression": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Predicate over instance data keys: comparisons (>, <, ==, !=), and/or, literals",
			},
		},
	}
}
