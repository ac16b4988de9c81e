// Package end provides the terminal node executor.
package end

import (
	"context"

	"github.com/lexflow/lexflow/pkg/models"
)

type Executor struct{}

func NewExecutor() *Executor {
	return &Executor{}
}

func (e *Executor) Type() models.NodeType {
	return models.NodeTypeEnd
}

// Execute marks the instance completed. End nodes have no outgoing
// connections; the scheduler terminal-transitions on Completed.
func (e *Executor) Execute(_ context.Context, _ *models.WorkflowNode, _ map[string]any) (models.ExecutionResult, error) {
	return models.ExecutionResult{
		Outcome:   models.OutcomeSuccess,
		Completed: true,
	}, nil
}
