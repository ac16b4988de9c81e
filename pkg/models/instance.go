package models

import "time"

// InstanceStatus represents the lifecycle state of a workflow instance.
type InstanceStatus string

const (
	InstanceStatusRunning   InstanceStatus = "running"
	InstanceStatusPaused    InstanceStatus = "paused"
	InstanceStatusCompleted InstanceStatus = "completed"
	InstanceStatusFailed    InstanceStatus = "failed"
)

// Machine-readable failure reason codes recorded on failed instances.
const (
	FailureReasonConditionEvaluation = "condition_evaluation_error"
	FailureReasonCapabilityError     = "capability_error"
	FailureReasonCapabilityTimeout   = "capability_timeout"
	FailureReasonDispatchError       = "notification_dispatch_error"
	FailureReasonInvalidConfig       = "invalid_node_config"
	FailureReasonStepLimitExceeded   = "step_limit_exceeded"
	FailureReasonCancelled           = "cancelled"
)

// WorkflowInstance is one execution of a definition against specific trigger
// data. It binds to the definition version in effect at creation time;
// later definition versions never change a running instance's behavior.
type WorkflowInstance struct {
	ID              string         `json:"id"`
	WorkflowID      string         `json:"workflow_id"`
	WorkflowVersion int            `json:"workflow_version"`
	Status          InstanceStatus `json:"status"`
	CurrentNodeID   string         `json:"current_node_id"`
	Data            map[string]any `json:"data"`
	StepCount       int            `json:"step_count"`
	FailureReason   string         `json:"failure_reason,omitempty"`
	StartTime       time.Time      `json:"start_time"`
	CompletedTime   *time.Time     `json:"completed_time,omitempty"`
	History         []HistoryEntry `json:"history"`
}

// HistoryEntry records one node visit. Entries are append-only and never
// mutated after the visit completes.
type HistoryEntry struct {
	NodeID    string     `json:"node_id"`
	EnteredAt time.Time  `json:"entered_at"`
	ExitedAt  *time.Time `json:"exited_at,omitempty"`
	Outcome   string     `json:"outcome"`
	Attempts  int        `json:"attempts,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// IsTerminal reports whether the instance accepts further advances.
func (i *WorkflowInstance) IsTerminal() bool {
	return i.Status == InstanceStatusCompleted || i.Status == InstanceStatusFailed
}

// DataSnapshot returns a shallow copy of the instance data. Node executors
// only ever see snapshots so that a raced advance cannot observe partial
// writes through a shared map.
func (i *WorkflowInstance) DataSnapshot() map[string]any {
	snapshot := make(map[string]any, len(i.Data))
	for k, v := range i.Data {
		snapshot[k] = v
	}

	return snapshot
}
