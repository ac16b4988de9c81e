package protocol

import "context"

// Dispatcher is the notification collaborator. The engine only knows it as
// a capability that either delivers or fails; delivery mechanics (email,
// webhook, push) live behind the implementation.
type Dispatcher interface {
	Dispatch(ctx context.Context, recipients []string, template string, payload map[string]any) error
}

// TriggerCallback is invoked by trigger sources when an external event
// arrives. The payload becomes the new instance's trigger data.
type TriggerCallback func(ctx context.Context, triggerEvent string, payload map[string]any) error

// TriggerSource is a long-running producer of trigger events (queue
// consumer, cron schedule).
type TriggerSource interface {
	Start(ctx context.Context, callback TriggerCallback) error
	Stop(ctx context.Context) error
}
