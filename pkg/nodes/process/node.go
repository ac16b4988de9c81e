// Package process provides the process node executor: invocation of an
// external capability with a mandatory bounded timeout.
package process

import (
	"context"
	"errors"
	"fmt"

	"github.com/lexflow/lexflow/pkg/models"
	"github.com/lexflow/lexflow/pkg/protocol"
)

type Executor struct {
	resolver protocol.CapabilityResolver
}

func NewExecutor(resolver protocol.CapabilityResolver) *Executor {
	return &Executor{resolver: resolver}
}

func (e *Executor) Type() models.NodeType {
	return models.NodeTypeProcess
}

func (e *Executor) Execute(ctx context.Context, node *models.WorkflowNode, snapshot map[string]any) (models.ExecutionResult, error) {
	cfg := node.Config.Process
	if cfg == nil || cfg.Capability == "" {
		return models.Failure(models.FailureReasonInvalidConfig, false),
			fmt.Errorf("process node %s has no capability configured", node.ID)
	}

	capability, err := e.resolver.ResolveCapability(cfg.Capability)
	if err != nil {
		return models.Failure(models.FailureReasonInvalidConfig, false), err
	}

	invokeCtx, cancel := context.WithTimeout(ctx, protocol.Timeout(cfg.Timeout()))
	defer cancel()

	payload, err := capability.Invoke(invokeCtx, cfg.Parameters, snapshot)
	if err != nil {
		reason := models.FailureReasonCapabilityError
		if errors.Is(err, context.DeadlineExceeded) {
			reason = models.FailureReasonCapabilityTimeout
		}

		return models.Failure(reason, protocol.IsTransient(err)), err
	}

	return models.Success(node.NextConnection(), payload), nil
}
