package protocol

import (
	"context"
	"errors"
	"fmt"
)

// TransientFailure wraps err as a retryable failure class.
func TransientFailure(err error) error {
	return &classifiedError{err: err, transient: true}
}

// PermanentFailure wraps err as a non-retryable failure class (bad config,
// malformed payload).
func PermanentFailure(err error) error {
	return &classifiedError{err: err, transient: false}
}

type classifiedError struct {
	err       error
	transient bool
}

func (e *classifiedError) Error() string {
	if e.transient {
		return fmt.Sprintf("transient: %v", e.err)
	}

	return fmt.Sprintf("permanent: %v", e.err)
}

func (e *classifiedError) Unwrap() error {
	return e.err
}

func (e *classifiedError) Transient() bool {
	return e.transient
}

func asTransient(err error, target *TransientError) bool {
	return errors.As(err, target)
}

func isDeadline(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
