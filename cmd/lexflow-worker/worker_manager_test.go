package main

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexflow/lexflow/pkg/eventbus"
	"github.com/lexflow/lexflow/pkg/events"
	"github.com/lexflow/lexflow/pkg/persistence/file"
	"github.com/lexflow/lexflow/pkg/registry"
)

type MockEventBus struct {
	publishedEvents []interface{}
}

func (m *MockEventBus) Handle(eventType events.EventType, handler eventbus.EventHandler) error {
	return nil
}

func (m *MockEventBus) Publish(ctx context.Context, key string, event eventbus.Event) error {
	m.publishedEvents = append(m.publishedEvents, event)

	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context) error {
	return nil
}

func (m *MockEventBus) Close() error {
	return nil
}

func (m *MockEventBus) GenerateID() string {
	return "mock-event-id"
}

func newTestWorkerManager(t *testing.T, workerID string) *WorkerManager {
	t.Helper()

	persistence, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	registry := registry.NewRegistry(logger)
	eventBus := &MockEventBus{}

	return NewWorkerManager(workerID, persistence, eventBus, logger, registry)
}

func TestNewWorkerManager(t *testing.T) {
	wm := newTestWorkerManager(t, "test-worker-1")

	assert.NotNil(t, wm)
	assert.Equal(t, "test-worker-1", wm.id)
	assert.NotNil(t, wm.scheduler)
	assert.NotNil(t, wm.eventBus)
	assert.NotNil(t, wm.logger)
}

func TestWorkerManager_HandleInstanceRunnable_InvalidEvent(t *testing.T) {
	wm := newTestWorkerManager(t, "test-worker")

	err := wm.handleInstanceRunnable(context.Background(), "invalid-event")

	assert.NoError(t, err)
}

func TestWorkerManager_HandleInstanceRunnable_UnknownInstance(t *testing.T) {
	wm := newTestWorkerManager(t, "test-worker")

	event := &events.InstanceCreated{
		BaseEvent: events.NewBaseEvent(events.InstanceCreatedEvent, "wf-1", "missing-instance"),
	}

	err := wm.handleInstanceRunnable(context.Background(), event)

	assert.NoError(t, err)
}

func TestInstanceOf(t *testing.T) {
	created := &events.InstanceCreated{
		BaseEvent: events.NewBaseEvent(events.InstanceCreatedEvent, "wf-1", "inst-1"),
	}

	instanceID, workflowID, ok := instanceOf(created)
	require.True(t, ok)
	assert.Equal(t, "inst-1", instanceID)
	assert.Equal(t, "wf-1", workflowID)

	_, _, ok = instanceOf(&events.InstanceCompleted{})
	assert.False(t, ok)
}
