package protocol

import (
	"context"
	"time"
)

// Capability is an external processing collaborator invoked by process
// nodes. The engine treats the configuration and payload as opaque; the
// timeout bound is mandatory and enforced by the caller via ctx.
type Capability interface {
	// Name returns the capability name process-node configs refer to.
	Name() string

	// Invoke calls the collaborator with the node parameters and the
	// instance data snapshot, returning a payload to merge into instance
	// data.
	Invoke(ctx context.Context, params map[string]any, snapshot map[string]any) (map[string]any, error)
}

// CapabilityResolver resolves a capability by name.
type CapabilityResolver interface {
	ResolveCapability(name string) (Capability, error)
}

// TransientError marks a capability or dispatcher failure as retryable
// (timeouts, 5xx-equivalent upstream conditions). Failures that do not
// implement it are treated as permanent.
type TransientError interface {
	error
	Transient() bool
}

// IsTransient reports whether err is a retryable failure class. Context
// deadline expiry counts as transient: the collaborator may well succeed
// on a later attempt.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var transient TransientError
	if ok := asTransient(err, &transient); ok {
		return transient.Transient()
	}

	return isDeadline(err)
}

// Timeout returns the capability timeout as a duration given the node's
// configured milliseconds.
func Timeout(timeoutMs int) time.Duration {
	return time.Duration(timeoutMs) * time.Millisecond
}
