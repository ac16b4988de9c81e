package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/lexflow/lexflow/pkg/eventbus"
	"github.com/lexflow/lexflow/pkg/events"
	"github.com/lexflow/lexflow/pkg/models"
	"github.com/lexflow/lexflow/pkg/persistence"
)

// Instance handles instance retrieval and manual lifecycle control.
// Pause and resume are only valid from running and paused respectively;
// cancel works from either and ends the instance as failed with reason
// cancelled. The store enforces the source-status guard, so a raced
// operation fails instead of clobbering a concurrent change.
type Instance struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
}

func NewInstance(logger *slog.Logger, persistence persistence.Persistence, publisher eventbus.EventPublisher) *Instance {
	return &Instance{
		logger:      logger.With("module", "instance_service"),
		persistence: persistence,
		publisher:   publisher,
	}
}

// GetByID returns one instance with its full history.
func (s *Instance) GetByID(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	return s.persistence.InstanceByID(ctx, id)
}

// Pause stops a running instance before its next advance. Completed steps
// stay in history; resuming continues from the current node.
func (s *Instance) Pause(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	err := s.persistence.UpdateInstanceStatus(ctx, persistence.StatusChange{
		InstanceID: id,
		From:       []models.InstanceStatus{models.InstanceStatusRunning},
		To:         models.InstanceStatusPaused,
	})
	if err != nil {
		return nil, err
	}

	instance, err := s.persistence.InstanceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Paused instance", "instance_id", id, "current_node_id", instance.CurrentNodeID)
	s.publish(ctx, id, events.InstancePaused{
		BaseEvent: events.NewBaseEvent(events.InstancePausedEvent, instance.WorkflowID, id),
		NodeID:    instance.CurrentNodeID,
	})

	return instance, nil
}

// Resume returns a paused instance to running. The resumed event wakes a
// worker, which re-executes from the current node without replaying
// completed history.
func (s *Instance) Resume(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	err := s.persistence.UpdateInstanceStatus(ctx, persistence.StatusChange{
		InstanceID: id,
		From:       []models.InstanceStatus{models.InstanceStatusPaused},
		To:         models.InstanceStatusRunning,
	})
	if err != nil {
		return nil, err
	}

	instance, err := s.persistence.InstanceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Resumed instance", "instance_id", id, "current_node_id", instance.CurrentNodeID)
	s.publish(ctx, id, events.InstanceResumed{
		BaseEvent: events.NewBaseEvent(events.InstanceResumedEvent, instance.WorkflowID, id),
		NodeID:    instance.CurrentNodeID,
	})

	return instance, nil
}

// Cancel ends a running or paused instance as failed with reason cancelled.
// The cancellation is recorded in history against the node the instance was
// at, so a cancelled instance's audit log still shows how it ended.
func (s *Instance) Cancel(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	current, err := s.persistence.InstanceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	completedAt := time.Now().UTC()

	err = s.persistence.UpdateInstanceStatus(ctx, persistence.StatusChange{
		InstanceID:    id,
		From:          []models.InstanceStatus{models.InstanceStatusRunning, models.InstanceStatusPaused},
		To:            models.InstanceStatusFailed,
		FailureReason: models.FailureReasonCancelled,
		CompletedAt:   &completedAt,
		Entry: &models.HistoryEntry{
			NodeID:    current.CurrentNodeID,
			EnteredAt: completedAt,
			ExitedAt:  &completedAt,
			Outcome:   string(models.OutcomeFailure),
			Error:     models.FailureReasonCancelled,
		},
	})
	if err != nil {
		return nil, err
	}

	instance, err := s.persistence.InstanceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Cancelled instance", "instance_id", id)
	s.publish(ctx, id, events.InstanceCancelled{
		BaseEvent: events.NewBaseEvent(events.InstanceCancelledEvent, instance.WorkflowID, id),
		NodeID:    instance.CurrentNodeID,
		StepCount: instance.StepCount,
	})

	return instance, nil
}

func (s *Instance) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish lifecycle event", "event_type", event.GetType(), "error", err)
	}
}
