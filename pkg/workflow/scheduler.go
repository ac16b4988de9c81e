package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lexflow/lexflow/pkg/eventbus"
	"github.com/lexflow/lexflow/pkg/events"
	"github.com/lexflow/lexflow/pkg/models"
	"github.com/lexflow/lexflow/pkg/otelhelper"
	"github.com/lexflow/lexflow/pkg/persistence"
	"github.com/lexflow/lexflow/pkg/protocol"
	"github.com/lexflow/lexflow/pkg/registry"
)

// DefaultMaxSteps bounds runaway decision loops. An instance that reaches
// the limit fails with reason step_limit_exceeded instead of spinning
// forever.
const DefaultMaxSteps = 10000

// Scheduler drives instances forward one node at a time. It is the single
// writer of instance state: executors return results, the scheduler turns
// them into persisted transitions. Concurrent schedulers racing on the same
// instance are serialized by the store's optimistic-concurrency check, so
// an Advance that loses the race returns ErrTransitionConflict and changes
// nothing.
type Scheduler struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	publisher   eventbus.EventPublisher
	workerID    string
	tracer      trace.Tracer
	maxSteps    int
}

// SchedulerOption adjusts a Scheduler at construction.
type SchedulerOption func(*Scheduler)

// WithMaxSteps overrides the step limit. Values below one fall back to
// DefaultMaxSteps.
func WithMaxSteps(maxSteps int) SchedulerOption {
	return func(s *Scheduler) {
		if maxSteps > 0 {
			s.maxSteps = maxSteps
		}
	}
}

func NewScheduler(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	publisher eventbus.EventPublisher,
	workerID string,
	opts ...SchedulerOption,
) *Scheduler {
	scheduler := &Scheduler{
		logger:      logger.With("module", "scheduler", "worker_id", workerID),
		persistence: persistence,
		registry:    registry,
		publisher:   publisher,
		workerID:    workerID,
		tracer:      otel.Tracer("lexflow.scheduler"),
		maxSteps:    DefaultMaxSteps,
	}

	for _, opt := range opts {
		opt(scheduler)
	}

	return scheduler
}

// Advance executes the instance's current node and persists the resulting
// transition. Instances that are paused or terminal are left untouched.
func (s *Scheduler) Advance(ctx context.Context, instanceID string) error {
	instance, err := s.persistence.InstanceByID(ctx, instanceID)
	if err != nil {
		return err
	}

	logger := s.logger.With(
		"instance_id", instance.ID,
		"workflow_id", instance.WorkflowID,
		"current_node_id", instance.CurrentNodeID,
	)

	if instance.IsTerminal() {
		return persistence.NewInstanceError("advance", instance.ID, persistence.ErrInstanceTerminal)
	}

	if instance.Status != models.InstanceStatusRunning {
		logger.Debug("Instance is not running, skipping advance", "status", instance.Status)

		return nil
	}

	if instance.StepCount >= s.maxSteps {
		logger.Warn("Instance exceeded step limit", "step_count", instance.StepCount)

		return s.failInstance(ctx, instance, models.FailureReasonStepLimitExceeded, errors.New("step limit exceeded"), 1)
	}

	definition, err := s.persistence.DefinitionByVersion(ctx, instance.WorkflowID, instance.WorkflowVersion)
	if err != nil {
		return err
	}

	node := definition.Node(instance.CurrentNodeID)
	if node == nil {
		logger.Error("Current node missing from definition")

		return s.failInstance(ctx, instance, models.FailureReasonInvalidConfig, errors.New("current node missing from definition"), 1)
	}

	executor, err := s.registry.CreateExecutor(ctx, node.Type)
	if err != nil {
		logger.Error("Failed to create node executor", "error", err)

		return s.failInstance(ctx, instance, models.FailureReasonInvalidConfig, err, 1)
	}

	spanCtx, span := otelhelper.StartSpan(ctx, s.tracer, "scheduler.advance",
		attribute.String(otelhelper.WorkflowIDKey, instance.WorkflowID),
		attribute.Int(otelhelper.WorkflowVersionKey, instance.WorkflowVersion),
		attribute.String(otelhelper.InstanceIDKey, instance.ID),
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeTypeKey, string(node.Type)),
		attribute.String(otelhelper.WorkerIDKey, s.workerID),
	)
	defer span.End()

	enteredAt := time.Now().UTC()
	result, attempts, execErr := s.executeWithRetry(spanCtx, executor, node, instance)
	exitedAt := time.Now().UTC()

	logger = logger.With("node_type", node.Type, "attempts", attempts)

	entry := models.HistoryEntry{
		NodeID:    node.ID,
		EnteredAt: enteredAt,
		ExitedAt:  &exitedAt,
		Outcome:   string(result.Outcome),
		Attempts:  attempts,
	}
	if execErr != nil {
		entry.Error = execErr.Error()
	}

	switch {
	case result.Outcome == models.OutcomeFailure:
		logger.Warn("Node execution failed", "failure_reason", result.FailureReason, "error", execErr)

		if execErr != nil {
			otelhelper.SetError(span, execErr)
		}

		return s.applyFailure(ctx, instance, entry, result.FailureReason)
	case result.Completed:
		logger.Info("Instance completed")

		return s.applyCompletion(ctx, instance, entry, result.DataDelta)
	default:
		logger.Info("Instance advanced", "next_node_id", result.NextNodeID)

		return s.applyAdvance(ctx, instance, entry, result.NextNodeID, result.DataDelta)
	}
}

// executeWithRetry runs the executor up to the node's attempt budget with
// exponential backoff. Only results marked retryable consume extra
// attempts; everything else fails on the first try.
func (s *Scheduler) executeWithRetry(
	ctx context.Context,
	executor protocol.NodeExecutor,
	node *models.WorkflowNode,
	instance *models.WorkflowInstance,
) (models.ExecutionResult, int, error) {
	maxAttempts := nodeAttempts(node)

	var (
		result   models.ExecutionResult
		execErr  error
		attempts int
	)

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(maxAttempts-1)), //nolint:gosec
		ctx,
	)

	retryErr := backoff.Retry(func() error {
		attempts++

		result, execErr = executor.Execute(ctx, node, instance.DataSnapshot())
		if result.Outcome != models.OutcomeFailure {
			return nil
		}

		failure := execErr
		if failure == nil {
			failure = errors.New(result.FailureReason)
		}

		if !result.Retryable {
			return backoff.Permanent(failure)
		}

		return failure
	}, policy)

	if retryErr != nil && execErr == nil {
		execErr = retryErr
	}

	return result, attempts, execErr
}

func nodeAttempts(node *models.WorkflowNode) int {
	switch node.Type {
	case models.NodeTypeProcess:
		if node.Config.Process != nil {
			return node.Config.Process.Attempts()
		}
	case models.NodeTypeNotification:
		if node.Config.Notification != nil {
			return node.Config.Notification.Attempts()
		}
	}

	return 1
}

func (s *Scheduler) applyAdvance(
	ctx context.Context,
	instance *models.WorkflowInstance,
	entry models.HistoryEntry,
	nextNodeID string,
	delta map[string]any,
) error {
	err := s.persistence.ApplyTransition(ctx, persistence.Transition{
		InstanceID:     instance.ID,
		ExpectedNodeID: instance.CurrentNodeID,
		NextNodeID:     nextNodeID,
		Status:         models.InstanceStatusRunning,
		DataDelta:      delta,
		Entry:          entry,
	})
	if err != nil {
		return err
	}

	s.publish(ctx, instance.ID, events.InstanceAdvanced{
		BaseEvent:  s.baseEvent(events.InstanceAdvancedEvent, instance),
		FromNodeID: instance.CurrentNodeID,
		ToNodeID:   nextNodeID,
		StepCount:  instance.StepCount + 1,
	})

	return nil
}

func (s *Scheduler) applyCompletion(
	ctx context.Context,
	instance *models.WorkflowInstance,
	entry models.HistoryEntry,
	delta map[string]any,
) error {
	completedAt := time.Now().UTC()

	err := s.persistence.ApplyTransition(ctx, persistence.Transition{
		InstanceID:     instance.ID,
		ExpectedNodeID: instance.CurrentNodeID,
		Status:         models.InstanceStatusCompleted,
		DataDelta:      delta,
		Entry:          entry,
		CompletedAt:    &completedAt,
	})
	if err != nil {
		return err
	}

	s.publish(ctx, instance.ID, events.InstanceCompleted{
		BaseEvent:  s.baseEvent(events.InstanceCompletedEvent, instance),
		StepCount:  instance.StepCount + 1,
		DurationMs: completedAt.Sub(instance.StartTime).Milliseconds(),
	})

	return nil
}

func (s *Scheduler) applyFailure(
	ctx context.Context,
	instance *models.WorkflowInstance,
	entry models.HistoryEntry,
	failureReason string,
) error {
	completedAt := time.Now().UTC()

	err := s.persistence.ApplyTransition(ctx, persistence.Transition{
		InstanceID:     instance.ID,
		ExpectedNodeID: instance.CurrentNodeID,
		Status:         models.InstanceStatusFailed,
		Entry:          entry,
		FailureReason:  failureReason,
		CompletedAt:    &completedAt,
	})
	if err != nil {
		return err
	}

	s.publish(ctx, instance.ID, events.InstanceFailed{
		BaseEvent:     s.baseEvent(events.InstanceFailedEvent, instance),
		NodeID:        entry.NodeID,
		FailureReason: failureReason,
		Error:         entry.Error,
		StepCount:     instance.StepCount + 1,
		DurationMs:    completedAt.Sub(instance.StartTime).Milliseconds(),
	})

	return nil
}

func (s *Scheduler) failInstance(
	ctx context.Context,
	instance *models.WorkflowInstance,
	failureReason string,
	cause error,
	attempts int,
) error {
	now := time.Now().UTC()

	entry := models.HistoryEntry{
		NodeID:    instance.CurrentNodeID,
		EnteredAt: now,
		ExitedAt:  &now,
		Outcome:   string(models.OutcomeFailure),
		Attempts:  attempts,
	}
	if cause != nil {
		entry.Error = cause.Error()
	}

	return s.applyFailure(ctx, instance, entry, failureReason)
}

func (s *Scheduler) baseEvent(eventType events.EventType, instance *models.WorkflowInstance) events.BaseEvent {
	base := events.NewBaseEvent(eventType, instance.WorkflowID, instance.ID)
	base.WorkerID = s.workerID

	return base
}

// publish is best-effort: a lost lifecycle event never rolls back a
// persisted transition.
func (s *Scheduler) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.Error("Failed to publish lifecycle event", "event_type", event.GetType(), "error", err)
	}
}
