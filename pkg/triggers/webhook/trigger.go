// Package webhook provides an HTTP trigger source. Each POST to
// /webhooks/:event emits that event with the request body as payload.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/lexflow/lexflow/pkg/protocol"
)

const defaultPort = 9094

type Trigger struct {
	Port int

	app      *fiber.App
	callback protocol.TriggerCallback
	logger   *slog.Logger
}

func NewTrigger(config map[string]any, logger *slog.Logger) (*Trigger, error) {
	port := defaultPort

	if portStr, _ := config["port"].(string); portStr != "" {
		parsed, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid port value: %w", err)
		}

		port = parsed
	}

	if port <= 0 || port > 65535 {
		return nil, errors.New("invalid webhook server port")
	}

	return &Trigger{
		Port: port,
		logger: logger.With(
			"module", "webhook_trigger",
			"port", port,
		),
	}, nil
}

// Start launches the HTTP server and serves until Stop. The listener error
// is only logged: by the time it can occur the caller has moved on.
func (t *Trigger) Start(ctx context.Context, callback protocol.TriggerCallback) error {
	t.callback = callback

	app := t.newApp()
	t.app = app

	go func() {
		err := app.Listen(":"+strconv.Itoa(t.Port), fiber.ListenConfig{DisableStartupMessage: true})
		if err != nil {
			t.logger.ErrorContext(ctx, "Webhook server stopped", "error", err)
		}
	}()

	t.logger.InfoContext(ctx, "Webhook trigger source started")

	return nil
}

func (t *Trigger) newApp() *fiber.App {
	app := fiber.New()
	app.Post("/webhooks/:event", t.handleWebhook)

	return app
}

func (t *Trigger) handleWebhook(c fiber.Ctx) error {
	triggerEvent := c.Params("event")

	payload := make(map[string]any)
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&payload); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "request body must be a JSON object",
			})
		}
	}

	err := t.callback(c.Context(), triggerEvent, payload)
	if err != nil {
		t.logger.Error("Failed to process webhook event",
			"trigger_event", triggerEvent, "error", err)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to process event",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"trigger_event": triggerEvent,
	})
}

func (t *Trigger) Stop(ctx context.Context) error {
	if t.app == nil {
		return nil
	}

	t.logger.InfoContext(ctx, "Stopping webhook trigger source")

	return t.app.ShutdownWithContext(ctx)
}

var _ protocol.TriggerSource = (*Trigger)(nil)
