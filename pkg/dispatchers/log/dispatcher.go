// Package log provides a dispatcher that writes notifications to the
// structured log. Useful for development and as a delivery fallback.
package log

import (
	"context"
	"log/slog"

	"github.com/lexflow/lexflow/pkg/protocol"
	"github.com/lexflow/lexflow/pkg/template"
)

type Dispatcher struct {
	logger *slog.Logger
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		logger: logger.With("module", "log_dispatcher"),
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, recipients []string, tmpl string, payload map[string]any) error {
	message, err := template.RenderMessage(tmpl, payload)
	if err != nil {
		return protocol.PermanentFailure(err)
	}

	d.logger.InfoContext(ctx, "Notification",
		"recipients", recipients,
		"message", message,
		"payload", payload)

	return nil
}

var _ protocol.Dispatcher = (*Dispatcher)(nil)
