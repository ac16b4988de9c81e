package models

// Outcome classifies how a node execution finished.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// ExecutionResult is the value a node executor returns to the scheduler.
// Executors never touch instance state; the scheduler is the single writer.
type ExecutionResult struct {
	// DataDelta is merged into the instance data on success.
	DataDelta map[string]any `json:"data_delta,omitempty"`

	// NextNodeID is the chosen outgoing connection. Empty on end nodes
	// and on failure.
	NextNodeID string `json:"next_node_id,omitempty"`

	Outcome       Outcome `json:"outcome"`
	FailureReason string  `json:"failure_reason,omitempty"`

	// Retryable marks transient failures (timeouts, 5xx-class collaborator
	// errors). Validation-class failures are not retryable.
	Retryable bool `json:"retryable,omitempty"`

	// Completed is set by end-node execution: the instance terminates as
	// completed instead of moving to a next node.
	Completed bool `json:"completed,omitempty"`
}

// Success builds a successful result routed to nextNodeID.
func Success(nextNodeID string, delta map[string]any) ExecutionResult {
	return ExecutionResult{
		DataDelta:  delta,
		NextNodeID: nextNodeID,
		Outcome:    OutcomeSuccess,
	}
}

// Failure builds a failed result with the given reason code.
func Failure(reason string, retryable bool) ExecutionResult {
	return ExecutionResult{
		Outcome:       OutcomeFailure,
		FailureReason: reason,
		Retryable:     retryable,
	}
}
