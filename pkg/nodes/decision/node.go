// Package decision provides conditional branching for workflow graph
// execution. A decision node evaluates its predicate against the instance
// data snapshot and routes to the true or false branch; evaluation errors
// fail the node instead of guessing a branch.
package decision

import (
	"context"

	"github.com/lexflow/lexflow/pkg/condition"
	"github.com/lexflow/lexflow/pkg/models"
)

type Executor struct{}

func NewExecutor() *Executor {
	return &Executor{}
}

func (e *Executor) Type() models.NodeType {
	return models.NodeTypeDecision
}

func (e *Executor) Execute(_ context.Context, node *models.WorkflowNode, snapshot map[string]any) (models.ExecutionResult, error) {
	cfg := node.Config.Decision
	if cfg == nil || cfg.Expression == "" || len(node.Connections) != 2 {
		return models.Failure(models.FailureReasonInvalidConfig, false), nil
	}

	result, err := condition.Evaluate(cfg.Expression, snapshot)
	if err != nil {
		failure := models.Failure(models.FailureReasonConditionEvaluation, false)

		return failure, err
	}

	branch := models.DecisionBranchFalse
	if result {
		branch = models.DecisionBranchTrue
	}

	return models.Success(node.Connections[branch], map[string]any{
		node.ID + ".result": result,
	}), nil
}
