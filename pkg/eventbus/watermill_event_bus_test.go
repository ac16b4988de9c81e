package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexflow/lexflow/pkg/channels/gochannel"
	"github.com/lexflow/lexflow/pkg/eventbus"
	"github.com/lexflow/lexflow/pkg/events"
)

func newTestBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestWatermillEventBus_PublishSubscribeRoundTrip(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan *events.InstanceCreated, 1)

	require.NoError(t, bus.Handle(events.InstanceCreatedEvent, func(_ context.Context, event any) error {
		created, ok := event.(*events.InstanceCreated)
		if !ok {
			t.Errorf("unexpected event type %T", event)

			return nil
		}

		received <- created

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	published := events.InstanceCreated{
		BaseEvent:       events.NewBaseEvent(events.InstanceCreatedEvent, "wf-1", "inst-1"),
		WorkflowVersion: 2,
		TriggerEvent:    "document.uploaded",
		Payload:         map[string]any{"document_id": "doc-9"},
	}

	require.NoError(t, bus.Publish(ctx, "inst-1", published))

	select {
	case got := <-received:
		assert.Equal(t, "wf-1", got.WorkflowID)
		assert.Equal(t, "inst-1", got.InstanceID)
		assert.Equal(t, 2, got.WorkflowVersion)
		assert.Equal(t, "document.uploaded", got.TriggerEvent)
		assert.Equal(t, "doc-9", got.Payload["document_id"])
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillEventBus_UnhandledEventTypeIsIgnored(t *testing.T) {
	bus := newTestBus(t)

	handled := make(chan struct{}, 1)

	require.NoError(t, bus.Handle(events.InstanceFailedEvent, func(context.Context, any) error {
		handled <- struct{}{}

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "inst-1", events.InstancePaused{
		BaseEvent: events.NewBaseEvent(events.InstancePausedEvent, "wf-1", "inst-1"),
	}))

	select {
	case <-handled:
		t.Fatal("handler should not receive other event types")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	bus := newTestBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
