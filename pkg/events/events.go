// Package events defines event types and structures for instance lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic is the Kafka topic carrying instance lifecycle events.
const Topic = "lexflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	InstanceCreatedEvent   EventType = "instance.created"
	InstanceAdvancedEvent  EventType = "instance.advanced"
	InstanceCompletedEvent EventType = "instance.completed"
	InstanceFailedEvent    EventType = "instance.failed"
	InstancePausedEvent    EventType = "instance.paused"
	InstanceResumedEvent   EventType = "instance.resumed"
	InstanceCancelledEvent EventType = "instance.cancelled"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	InstanceID string         `json:"instance_id"`
	WorkerID   string         `json:"worker_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// InstanceCreated signals that a trigger produced a fresh instance
// parked at its start node, ready for a worker to pick up.
type InstanceCreated struct {
	BaseEvent

	WorkflowVersion int            `json:"workflow_version"`
	TriggerEvent    string         `json:"trigger_event"`
	Payload         map[string]any `json:"payload,omitempty"`
}

func (e InstanceCreated) GetType() EventType {
	return InstanceCreatedEvent
}

// InstanceAdvanced signals that one node finished and the instance
// moved to the next node.
type InstanceAdvanced struct {
	BaseEvent

	FromNodeID string `json:"from_node_id"`
	ToNodeID   string `json:"to_node_id"`
	StepCount  int    `json:"step_count"`
}

func (e InstanceAdvanced) GetType() EventType {
	return InstanceAdvancedEvent
}

type InstanceCompleted struct {
	BaseEvent

	StepCount  int            `json:"step_count"`
	Result     map[string]any `json:"result,omitempty"`
	DurationMs int64          `json:"duration_ms"`
}

func (e InstanceCompleted) GetType() EventType {
	return InstanceCompletedEvent
}

type InstanceFailed struct {
	BaseEvent

	NodeID        string `json:"node_id"`
	FailureReason string `json:"failure_reason"`
	Error         string `json:"error,omitempty"`
	StepCount     int    `json:"step_count"`
	DurationMs    int64  `json:"duration_ms"`
}

func (e InstanceFailed) GetType() EventType {
	return InstanceFailedEvent
}

type InstancePaused struct {
	BaseEvent

	NodeID   string `json:"node_id"`
	PausedBy string `json:"paused_by,omitempty"`
}

func (e InstancePaused) GetType() EventType {
	return InstancePausedEvent
}

type InstanceResumed struct {
	BaseEvent

	NodeID    string `json:"node_id"`
	ResumedBy string `json:"resumed_by,omitempty"`
}

func (e InstanceResumed) GetType() EventType {
	return InstanceResumedEvent
}

type InstanceCancelled struct {
	BaseEvent

	NodeID      string `json:"node_id"`
	CancelledBy string `json:"cancelled_by,omitempty"`
	StepCount   int    `json:"step_count"`
}

func (e InstanceCancelled) GetType() EventType {
	return InstanceCancelledEvent
}

func NewBaseEvent(eventType EventType, workflowID, instanceID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		InstanceID: instanceID,
		Metadata:   make(map[string]any),
	}
}
