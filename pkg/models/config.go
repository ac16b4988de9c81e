package models

// Default execution bounds applied when a node config leaves them unset.
const (
	DefaultTimeoutMs   = 30000
	DefaultMaxAttempts = 3
)

// NodeConfig is the type-specific configuration of a node, a tagged union
// keyed by node type. Exactly the member matching WorkflowNode.Type may be
// set; start and end nodes carry no configuration.
type NodeConfig struct {
	Process      *ProcessConfig      `json:"process,omitempty"`
	Decision     *DecisionConfig     `json:"decision,omitempty"`
	Notification *NotificationConfig `json:"notification,omitempty"`
}

// ProcessConfig configures a process node: which external capability to
// invoke and how long to wait for it.
type ProcessConfig struct {
	Capability  string         `json:"capability" validate:"required"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	TimeoutMs   int            `json:"timeout_ms,omitempty"`
	MaxAttempts int            `json:"max_attempts,omitempty"`
}

// Timeout returns the configured timeout in milliseconds, or the default.
func (c *ProcessConfig) Timeout() int {
	if c.TimeoutMs <= 0 {
		return DefaultTimeoutMs
	}

	return c.TimeoutMs
}

// Attempts returns the configured attempt budget, or the default.
func (c *ProcessConfig) Attempts() int {
	if c.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}

	return c.MaxAttempts
}

// DecisionConfig configures a decision node with a predicate over instance
// data, written in the restricted condition grammar.
type DecisionConfig struct {
	Expression string `json:"expression" validate:"required"`
}

// NotificationConfig configures a notification node.
type NotificationConfig struct {
	Recipients  []string `json:"recipients" validate:"required,min=1"`
	Template    string   `json:"template"   validate:"required"`
	MaxAttempts int      `json:"max_attempts,omitempty"`
}

// Attempts returns the configured attempt budget, or the default.
func (c *NotificationConfig) Attempts() int {
	if c.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}

	return c.MaxAttempts
}
