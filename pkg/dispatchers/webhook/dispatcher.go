// Package webhook provides a notification dispatcher that delivers
// notifications as JSON POSTs to a configured endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lexflow/lexflow/pkg/protocol"
	"github.com/lexflow/lexflow/pkg/template"
)

const defaultClientTimeout = 30 * time.Second

type Dispatcher struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

func NewDispatcher(endpoint string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultClientTimeout},
		logger:   logger.With("module", "webhook_dispatcher"),
	}
}

// Dispatch renders the template against the payload and posts the
// notification to the endpoint. Transport errors and 5xx responses are
// transient so notification nodes retry them.
func (d *Dispatcher) Dispatch(ctx context.Context, recipients []string, tmpl string, payload map[string]any) error {
	message, err := template.RenderMessage(tmpl, payload)
	if err != nil {
		return protocol.PermanentFailure(fmt.Errorf("failed to render notification template: %w", err))
	}

	body, err := json.Marshal(map[string]any{
		"recipients": recipients,
		"template":   tmpl,
		"message":    message,
		"payload":    payload,
	})
	if err != nil {
		return protocol.PermanentFailure(fmt.Errorf("failed to encode notification: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return protocol.PermanentFailure(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return protocol.TransientFailure(fmt.Errorf("notification delivery failed: %w", err))
	}

	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return protocol.TransientFailure(fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody)))
	case resp.StatusCode >= http.StatusBadRequest:
		return protocol.PermanentFailure(fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody)))
	}

	d.logger.InfoContext(ctx, "Dispatched notification",
		"template", tmpl,
		"recipients", len(recipients),
		"status_code", resp.StatusCode)

	return nil
}

var _ protocol.Dispatcher = (*Dispatcher)(nil)
