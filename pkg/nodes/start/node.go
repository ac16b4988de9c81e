// Package start provides the entry node executor. Start nodes are pure
// pass-throughs: the trigger payload is already part of the instance data
// by the time the first advance runs.
package start

import (
	"context"

	"github.com/lexflow/lexflow/pkg/models"
)

type Executor struct{}

func NewExecutor() *Executor {
	return &Executor{}
}

func (e *Executor) Type() models.NodeType {
	return models.NodeTypeStart
}

func (e *Executor) Execute(_ context.Context, node *models.WorkflowNode, _ map[string]any) (models.ExecutionResult, error) {
	return models.Success(node.NextConnection(), nil), nil
}
