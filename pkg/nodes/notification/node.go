// Package notification provides the notification node executor. Dispatch
// goes through the injected Dispatcher collaborator; the engine never knows
// how delivery happens.
package notification

import (
	"context"
	"fmt"

	"github.com/lexflow/lexflow/pkg/models"
	"github.com/lexflow/lexflow/pkg/protocol"
)

type Executor struct {
	dispatcher protocol.Dispatcher
}

func NewExecutor(dispatcher protocol.Dispatcher) *Executor {
	return &Executor{dispatcher: dispatcher}
}

func (e *Executor) Type() models.NodeType {
	return models.NodeTypeNotification
}

func (e *Executor) Execute(ctx context.Context, node *models.WorkflowNode, snapshot map[string]any) (models.ExecutionResult, error) {
	cfg := node.Config.Notification
	if cfg == nil || len(cfg.Recipients) == 0 || cfg.Template == "" {
		return models.Failure(models.FailureReasonInvalidConfig, false),
			fmt.Errorf("notification node %s has incomplete dispatch config", node.ID)
	}

	err := e.dispatcher.Dispatch(ctx, cfg.Recipients, cfg.Template, snapshot)
	if err != nil {
		return models.Failure(models.FailureReasonDispatchError, protocol.IsTransient(err)), err
	}

	return models.Success(node.NextConnection(), nil), nil
}
