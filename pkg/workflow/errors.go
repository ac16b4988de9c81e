package workflow

import (
	"errors"
	"fmt"
)

// ValidationError reports one structural defect found while validating a
// definition graph. Registration rejects the definition when any are found.
type ValidationError struct {
	WorkflowID string
	NodeID     string
	Reason     string
}

func (e *ValidationError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("workflow %s: %s", e.WorkflowID, e.Reason)
	}

	return fmt.Sprintf("workflow %s: node %s: %s", e.WorkflowID, e.NodeID, e.Reason)
}

func IsValidationError(err error) bool {
	var validationErr *ValidationError

	return errors.As(err, &validationErr)
}

func newValidationError(workflowID, nodeID, format string, args ...any) *ValidationError {
	return &ValidationError{
		WorkflowID: workflowID,
		NodeID:     nodeID,
		Reason:     fmt.Sprintf(format, args...),
	}
}
