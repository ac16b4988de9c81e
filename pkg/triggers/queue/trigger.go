// Package queue provides a Redis-backed trigger source: messages pushed to
// a list become trigger events, each creating workflow instances.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/lexflow/lexflow/pkg/protocol"
)

const (
	connectTimeout = 5 * time.Second
	popTimeout     = 1 * time.Second
)

type Trigger struct {
	Addr         string
	Password     string
	DB           int
	Queue        string
	DefaultEvent string

	client   redis.UniversalClient
	callback protocol.TriggerCallback
	logger   *slog.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewTrigger(config map[string]any, logger *slog.Logger) (*Trigger, error) {
	queue, _ := config["queue"].(string)
	if queue == "" {
		return nil, errors.New("queue name is required")
	}

	defaultEvent, _ := config["trigger_event"].(string)
	if defaultEvent == "" {
		return nil, errors.New("trigger_event is required")
	}

	addr, _ := config["addr"].(string)
	if addr == "" {
		addr = "localhost:6379"
	}

	password, _ := config["password"].(string)

	db := 0

	if dbStr, _ := config["db"].(string); dbStr != "" {
		parsed, err := strconv.Atoi(dbStr)
		if err != nil {
			return nil, fmt.Errorf("invalid db value: %w", err)
		}

		db = parsed
	}

	return &Trigger{
		Addr:         addr,
		Password:     password,
		DB:           db,
		Queue:        queue,
		DefaultEvent: defaultEvent,
		stopCh:       make(chan struct{}),
		logger: logger.With(
			"module", "queue_trigger",
			"queue", queue,
		),
	}, nil
}

// Start connects to Redis and begins consuming messages until Stop or
// context cancellation.
func (t *Trigger) Start(ctx context.Context, callback protocol.TriggerCallback) error {
	t.callback = callback

	if err := t.initializeClient(ctx); err != nil {
		return err
	}

	t.wg.Add(1)

	go t.consume(ctx)

	return nil
}

func (t *Trigger) initializeClient(ctx context.Context) error {
	t.client = redis.NewClient(&redis.Options{
		Addr:     t.Addr,
		Password: t.Password,
		DB:       t.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := t.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	t.logger.InfoContext(ctx, "Connected to Redis", "addr", t.Addr, "db", t.DB)

	return nil
}

func (t *Trigger) consume(ctx context.Context) {
	defer t.wg.Done()

	t.logger.InfoContext(ctx, "Starting queue consumer")

	for {
		select {
		case <-t.stopCh:
			t.logger.InfoContext(ctx, "Queue consumer stopped")

			return
		case <-ctx.Done():
			t.logger.InfoContext(ctx, "Context cancelled, stopping queue consumer")

			return
		default:
			if err := t.processMessage(ctx); err != nil {
				t.logger.ErrorContext(ctx, "Error processing message", "error", err)
				time.Sleep(1 * time.Second)
			}
		}
	}
}

func (t *Trigger) processMessage(ctx context.Context) error {
	result, err := t.client.BLPop(ctx, popTimeout, t.Queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return fmt.Errorf("failed to pop message from queue: %w", err)
	}

	if len(result) < 2 {
		return nil
	}

	message := result[1]

	triggerEvent, payload := t.decodeMessage(message)

	t.logger.InfoContext(ctx, "Received message from queue", "trigger_event", triggerEvent)

	if err := t.callback(ctx, triggerEvent, payload); err != nil {
		t.logger.ErrorContext(ctx, "Error creating instances for trigger", "trigger_event", triggerEvent, "error", err)
	}

	return nil
}

// decodeMessage accepts either a JSON object, optionally carrying its own
// trigger_event and payload, or an opaque string wrapped as the payload.
func (t *Trigger) decodeMessage(message string) (string, map[string]any) {
	var decoded map[string]any
	if err := json.Unmarshal([]byte(message), &decoded); err != nil {
		return t.DefaultEvent, map[string]any{
			"message":   message,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
	}

	triggerEvent := t.DefaultEvent
	if event, ok := decoded["trigger_event"].(string); ok && event != "" {
		triggerEvent = event
	}

	if payload, ok := decoded["payload"].(map[string]any); ok {
		return triggerEvent, payload
	}

	delete(decoded, "trigger_event")

	return triggerEvent, decoded
}

func (t *Trigger) Stop(ctx context.Context) error {
	t.logger.InfoContext(ctx, "Stopping queue trigger")

	close(t.stopCh)
	t.wg.Wait()

	if t.client != nil {
		if err := t.client.Close(); err != nil {
			t.logger.ErrorContext(ctx, "Error closing Redis client", "error", err)
		}
	}

	return nil
}
