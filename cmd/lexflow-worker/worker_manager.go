package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lexflow/lexflow/pkg/eventbus"
	"github.com/lexflow/lexflow/pkg/events"
	"github.com/lexflow/lexflow/pkg/persistence"
	"github.com/lexflow/lexflow/pkg/registry"
	"github.com/lexflow/lexflow/pkg/workflow"
)

// WorkerManager subscribes to instance lifecycle events and drives the
// scheduler one step per event. Several workers can consume the same
// topic; the store's optimistic-concurrency check decides which one wins
// a contested step.
type WorkerManager struct {
	id        string
	logger    *slog.Logger
	scheduler *workflow.Scheduler
	eventBus  eventbus.EventBus
}

func NewWorkerManager(
	id string,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	registry *registry.Registry,
) *WorkerManager {
	return &WorkerManager{
		id:        id,
		logger:    logger.With("module", "lexflow-worker", "worker_id", id),
		scheduler: workflow.NewScheduler(logger, persistence, registry, eventBus, id),
		eventBus:  eventBus,
	}
}

func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager", "worker_id", w.id)

	for _, eventType := range []events.EventType{
		events.InstanceCreatedEvent,
		events.InstanceAdvancedEvent,
		events.InstanceResumedEvent,
	} {
		err := w.eventBus.Handle(eventType, w.handleInstanceRunnable)
		if err != nil {
			return err
		}
	}

	err := w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down worker...")

	return nil
}

// handleInstanceRunnable advances an instance by one step whenever an event
// says it has work pending. Losing the optimistic-concurrency race to another
// worker is routine and is not treated as a failure.
func (w *WorkerManager) handleInstanceRunnable(ctx context.Context, event any) error {
	instanceID, workflowID, ok := instanceOf(event)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for instance handler")

		return nil
	}

	logger := w.logger.With(
		"workflow_id", workflowID,
		"instance_id", instanceID,
	)
	logger.DebugContext(ctx, "Processing instance event")

	err := w.scheduler.Advance(ctx, instanceID)
	if err != nil {
		if persistence.IsTransitionConflict(err) || persistence.IsInstanceTerminal(err) {
			logger.DebugContext(ctx, "Instance already advanced elsewhere", "error", err)

			return nil
		}

		if persistence.IsInstanceNotFound(err) {
			logger.WarnContext(ctx, "Instance no longer exists", "error", err)

			return nil
		}

		logger.ErrorContext(ctx, "Failed to advance instance", "error", err)

		return err
	}

	return nil
}

func instanceOf(event any) (instanceID, workflowID string, ok bool) {
	switch typed := event.(type) {
	case *events.InstanceCreated:
		return typed.InstanceID, typed.WorkflowID, true
	case *events.InstanceAdvanced:
		return typed.InstanceID, typed.WorkflowID, true
	case *events.InstanceResumed:
		return typed.InstanceID, typed.WorkflowID, true
	default:
		return "", "", false
	}
}
