// Package gateway maps external trigger events to new workflow instances
// parked at their definition's start node.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lexflow/lexflow/pkg/eventbus"
	"github.com/lexflow/lexflow/pkg/events"
	"github.com/lexflow/lexflow/pkg/models"
	"github.com/lexflow/lexflow/pkg/persistence"
)

// ErrTriggerNotRegistered is returned when the target definition does not
// list the trigger event; API callers surface it as a client error.
var ErrTriggerNotRegistered = errors.New("trigger event not registered by workflow")

type Gateway struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
}

func NewGateway(logger *slog.Logger, persistence persistence.Persistence, publisher eventbus.EventPublisher) *Gateway {
	return &Gateway{
		logger:      logger.With("module", "gateway"),
		persistence: persistence,
		publisher:   publisher,
	}
}

// Trigger creates one instance of the given workflow, bound to its latest
// registered version, if that version lists the trigger event.
func (g *Gateway) Trigger(ctx context.Context, workflowID, triggerEvent string, payload map[string]any) (*models.WorkflowInstance, error) {
	definition, err := g.persistence.DefinitionByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if !definition.RegistersTrigger(triggerEvent) {
		return nil, fmt.Errorf("workflow %s: event %q: %w", workflowID, triggerEvent, ErrTriggerNotRegistered)
	}

	return g.createInstance(ctx, definition, triggerEvent, payload)
}

// TriggerAll fans a trigger event out to every definition that registers
// it, creating one instance per definition. Used by trigger sources, which
// carry an event name but no workflow id.
func (g *Gateway) TriggerAll(ctx context.Context, triggerEvent string, payload map[string]any) ([]*models.WorkflowInstance, error) {
	definitions, err := g.persistence.DefinitionsByTrigger(ctx, triggerEvent)
	if err != nil {
		return nil, err
	}

	instances := make([]*models.WorkflowInstance, 0, len(definitions))

	for _, definition := range definitions {
		instance, err := g.createInstance(ctx, definition, triggerEvent, payload)
		if err != nil {
			g.logger.Error("Failed to create instance for trigger",
				"workflow_id", definition.ID,
				"trigger_event", triggerEvent,
				"error", err)

			continue
		}

		instances = append(instances, instance)
	}

	return instances, nil
}

func (g *Gateway) createInstance(ctx context.Context, definition *models.WorkflowDefinition, triggerEvent string, payload map[string]any) (*models.WorkflowInstance, error) {
	if payload == nil {
		payload = make(map[string]any)
	}

	instance := &models.WorkflowInstance{
		ID:              uuid.New().String(),
		WorkflowID:      definition.ID,
		WorkflowVersion: definition.Version,
		Status:          models.InstanceStatusRunning,
		CurrentNodeID:   definition.StartNodeID,
		Data:            payload,
		StartTime:       time.Now().UTC(),
		History:         []models.HistoryEntry{},
	}

	if err := g.persistence.CreateInstance(ctx, instance); err != nil {
		return nil, err
	}

	g.logger.Info("Created workflow instance",
		"instance_id", instance.ID,
		"workflow_id", definition.ID,
		"workflow_version", definition.Version,
		"trigger_event", triggerEvent)

	if g.publisher != nil {
		event := events.InstanceCreated{
			BaseEvent:       events.NewBaseEvent(events.InstanceCreatedEvent, definition.ID, instance.ID),
			WorkflowVersion: definition.Version,
			TriggerEvent:    triggerEvent,
			Payload:         payload,
		}
		if err := g.publisher.Publish(ctx, instance.ID, event); err != nil {
			g.logger.Error("Failed to publish instance created event", "instance_id", instance.ID, "error", err)
		}
	}

	return instance, nil
}
