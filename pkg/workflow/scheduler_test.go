package workflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexflow/lexflow/pkg/models"
	"github.com/lexflow/lexflow/pkg/nodes/decision"
	"github.com/lexflow/lexflow/pkg/nodes/end"
	"github.com/lexflow/lexflow/pkg/nodes/notification"
	"github.com/lexflow/lexflow/pkg/nodes/process"
	"github.com/lexflow/lexflow/pkg/nodes/start"
	"github.com/lexflow/lexflow/pkg/persistence"
	"github.com/lexflow/lexflow/pkg/persistence/file"
	"github.com/lexflow/lexflow/pkg/protocol"
	"github.com/lexflow/lexflow/pkg/registry"
)

type fakeCapability struct {
	name    string
	output  map[string]any
	err     error
	invoked int
}

func (c *fakeCapability) Name() string {
	return c.name
}

func (c *fakeCapability) Invoke(_ context.Context, _ map[string]any, _ map[string]any) (map[string]any, error) {
	c.invoked++

	if c.err != nil {
		return nil, c.err
	}

	return c.output, nil
}

type fakeDispatcher struct {
	err        error
	dispatched int
}

func (d *fakeDispatcher) Dispatch(_ context.Context, _ []string, _ string, _ map[string]any) error {
	d.dispatched++

	return d.err
}

func newTestScheduler(t *testing.T, capability protocol.Capability, dispatcher protocol.Dispatcher, opts ...SchedulerOption) (*Scheduler, persistence.Persistence) {
	t.Helper()

	store, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg := registry.NewRegistry(logger)
	reg.RegisterExecutor(start.NewFactory())
	reg.RegisterExecutor(process.NewFactory(reg))
	reg.RegisterExecutor(decision.NewFactory())
	reg.RegisterExecutor(notification.NewFactory(dispatcher))
	reg.RegisterExecutor(end.NewFactory())

	if capability != nil {
		reg.RegisterCapability(capability)
	}

	return NewScheduler(logger, store, reg, nil, "worker-test", opts...), store
}

func seedInstance(t *testing.T, store persistence.Persistence, def *models.WorkflowDefinition, data map[string]any) *models.WorkflowInstance {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, store.SaveDefinition(ctx, def))

	instance := &models.WorkflowInstance{
		ID:              "inst-1",
		WorkflowID:      def.ID,
		WorkflowVersion: def.Version,
		Status:          models.InstanceStatusRunning,
		CurrentNodeID:   def.StartNodeID,
		Data:            data,
		StartTime:       time.Now().UTC(),
		History:         []models.HistoryEntry{},
	}
	require.NoError(t, store.CreateInstance(ctx, instance))

	return instance
}

func TestScheduler_Advance_LinearWorkflowToCompletion(t *testing.T) {
	capability := &fakeCapability{
		name:   "payments.charge",
		output: map[string]any{"charge_id": "ch_123"},
	}
	scheduler, store := newTestScheduler(t, capability, &fakeDispatcher{})

	ctx := context.Background()
	seedInstance(t, store, linearDefinition(), map[string]any{"amount": 50.0})

	for range 3 {
		require.NoError(t, scheduler.Advance(ctx, "inst-1"))
	}

	instance, err := store.InstanceByID(ctx, "inst-1")
	require.NoError(t, err)

	assert.Equal(t, models.InstanceStatusCompleted, instance.Status)
	assert.Equal(t, 3, instance.StepCount)
	assert.NotNil(t, instance.CompletedTime)
	assert.Equal(t, "ch_123", instance.Data["charge_id"])
	assert.Equal(t, 1, capability.invoked)

	require.Len(t, instance.History, 3)
	assert.Equal(t, "start", instance.History[0].NodeID)
	assert.Equal(t, "charge", instance.History[1].NodeID)
	assert.Equal(t, "done", instance.History[2].NodeID)

	for _, entry := range instance.History {
		assert.Equal(t, string(models.OutcomeSuccess), entry.Outcome)
		assert.NotNil(t, entry.ExitedAt)
	}
}

func TestScheduler_Advance_DecisionRoutesTrueBranch(t *testing.T) {
	scheduler, store := newTestScheduler(t, nil, &fakeDispatcher{})

	def := &models.WorkflowDefinition{
		ID:          "wf-decision",
		Name:        "Decision",
		Version:     1,
		StartNodeID: "start",
		Nodes: map[string]*models.WorkflowNode{
			"start": {ID: "start", Type: models.NodeTypeStart, Connections: []string{"check"}},
			"check": {
				ID:   "check",
				Type: models.NodeTypeDecision,
				Config: models.NodeConfig{
					Decision: &models.DecisionConfig{Expression: "amount > 100"},
				},
				Connections: []string{"high", "low"},
			},
			"high": {ID: "high", Type: models.NodeTypeEnd},
			"low":  {ID: "low", Type: models.NodeTypeEnd},
		},
	}

	ctx := context.Background()
	seedInstance(t, store, def, map[string]any{"amount": 250.0})

	require.NoError(t, scheduler.Advance(ctx, "inst-1"))
	require.NoError(t, scheduler.Advance(ctx, "inst-1"))

	instance, err := store.InstanceByID(ctx, "inst-1")
	require.NoError(t, err)

	assert.Equal(t, "high", instance.CurrentNodeID)
	assert.Equal(t, true, instance.Data["check.result"])
}

func TestScheduler_Advance_DecisionEvalErrorFailsInstance(t *testing.T) {
	scheduler, store := newTestScheduler(t, nil, &fakeDispatcher{})

	def := &models.WorkflowDefinition{
		ID:          "wf-decision",
		Name:        "Decision",
		Version:     1,
		StartNodeID: "start",
		Nodes: map[string]*models.WorkflowNode{
			"start": {ID: "start", Type: models.NodeTypeStart, Connections: []string{"check"}},
			"check": {
				ID:   "check",
				Type: models.NodeTypeDecision,
				Config: models.NodeConfig{
					Decision: &models.DecisionConfig{Expression: "missing_key > 10"},
				},
				Connections: []string{"high", "low"},
			},
			"high": {ID: "high", Type: models.NodeTypeEnd},
			"low":  {ID: "low", Type: models.NodeTypeEnd},
		},
	}

	ctx := context.Background()
	seedInstance(t, store, def, map[string]any{"amount": 250.0})

	require.NoError(t, scheduler.Advance(ctx, "inst-1"))
	require.NoError(t, scheduler.Advance(ctx, "inst-1"))

	instance, err := store.InstanceByID(ctx, "inst-1")
	require.NoError(t, err)

	assert.Equal(t, models.InstanceStatusFailed, instance.Status)
	assert.Equal(t, models.FailureReasonConditionEvaluation, instance.FailureReason)

	last := instance.History[len(instance.History)-1]
	assert.Equal(t, 1, last.Attempts)
	assert.Contains(t, last.Error, "missing_key")
}

func TestScheduler_Advance_TransientFailureRetriesThenFails(t *testing.T) {
	capability := &fakeCapability{
		name: "payments.charge",
		err:  protocol.TransientFailure(errors.New("gateway returned 503")),
	}
	scheduler, store := newTestScheduler(t, capability, &fakeDispatcher{})

	def := linearDefinition()
	def.Nodes["charge"].Config.Process.MaxAttempts = 3

	ctx := context.Background()
	seedInstance(t, store, def, nil)

	require.NoError(t, scheduler.Advance(ctx, "inst-1"))
	require.NoError(t, scheduler.Advance(ctx, "inst-1"))

	instance, err := store.InstanceByID(ctx, "inst-1")
	require.NoError(t, err)

	assert.Equal(t, models.InstanceStatusFailed, instance.Status)
	assert.Equal(t, models.FailureReasonCapabilityError, instance.FailureReason)
	assert.Equal(t, 3, capability.invoked)

	last := instance.History[len(instance.History)-1]
	assert.Equal(t, "charge", last.NodeID)
	assert.Equal(t, 3, last.Attempts)
	assert.Contains(t, last.Error, "503")
}

func TestScheduler_Advance_PermanentFailureDoesNotRetry(t *testing.T) {
	capability := &fakeCapability{
		name: "payments.charge",
		err:  protocol.PermanentFailure(errors.New("card number malformed")),
	}
	scheduler, store := newTestScheduler(t, capability, &fakeDispatcher{})

	ctx := context.Background()
	seedInstance(t, store, linearDefinition(), nil)

	require.NoError(t, scheduler.Advance(ctx, "inst-1"))
	require.NoError(t, scheduler.Advance(ctx, "inst-1"))

	instance, err := store.InstanceByID(ctx, "inst-1")
	require.NoError(t, err)

	assert.Equal(t, models.InstanceStatusFailed, instance.Status)
	assert.Equal(t, 1, capability.invoked)
	assert.Equal(t, 1, instance.History[len(instance.History)-1].Attempts)
}

func TestScheduler_Advance_NotificationDispatchRetries(t *testing.T) {
	dispatcher := &fakeDispatcher{err: protocol.TransientFailure(errors.New("smtp unavailable"))}
	scheduler, store := newTestScheduler(t, nil, dispatcher)

	def := &models.WorkflowDefinition{
		ID:          "wf-notify",
		Name:        "Notify",
		Version:     1,
		StartNodeID: "start",
		Nodes: map[string]*models.WorkflowNode{
			"start": {ID: "start", Type: models.NodeTypeStart, Connections: []string{"notify"}},
			"notify": {
				ID:   "notify",
				Type: models.NodeTypeNotification,
				Config: models.NodeConfig{
					Notification: &models.NotificationConfig{
						Recipients:  []string{"ops@example.com"},
						Template:    "instance-failed",
						MaxAttempts: 2,
					},
				},
				Connections: []string{"done"},
			},
			"done": {ID: "done", Type: models.NodeTypeEnd},
		},
	}

	ctx := context.Background()
	seedInstance(t, store, def, nil)

	require.NoError(t, scheduler.Advance(ctx, "inst-1"))
	require.NoError(t, scheduler.Advance(ctx, "inst-1"))

	instance, err := store.InstanceByID(ctx, "inst-1")
	require.NoError(t, err)

	assert.Equal(t, models.InstanceStatusFailed, instance.Status)
	assert.Equal(t, models.FailureReasonDispatchError, instance.FailureReason)
	assert.Equal(t, 2, dispatcher.dispatched)
}

func TestScheduler_Advance_SkipsPausedInstance(t *testing.T) {
	scheduler, store := newTestScheduler(t, nil, &fakeDispatcher{})

	ctx := context.Background()
	seedInstance(t, store, linearDefinition(), nil)

	require.NoError(t, store.UpdateInstanceStatus(ctx, persistence.StatusChange{
		InstanceID: "inst-1",
		From:       []models.InstanceStatus{models.InstanceStatusRunning},
		To:         models.InstanceStatusPaused,
	}))

	require.NoError(t, scheduler.Advance(ctx, "inst-1"))

	instance, err := store.InstanceByID(ctx, "inst-1")
	require.NoError(t, err)

	assert.Equal(t, models.InstanceStatusPaused, instance.Status)
	assert.Equal(t, 0, instance.StepCount)
	assert.Empty(t, instance.History)
}

func TestScheduler_Advance_TerminalInstanceRejected(t *testing.T) {
	capability := &fakeCapability{name: "payments.charge", output: map[string]any{}}
	scheduler, store := newTestScheduler(t, capability, &fakeDispatcher{})

	ctx := context.Background()
	seedInstance(t, store, linearDefinition(), nil)

	for range 3 {
		require.NoError(t, scheduler.Advance(ctx, "inst-1"))
	}

	err := scheduler.Advance(ctx, "inst-1")
	require.Error(t, err)
	assert.True(t, persistence.IsInstanceTerminal(err))

	instance, err := store.InstanceByID(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, 3, instance.StepCount)
	assert.Len(t, instance.History, 3)
}

func TestScheduler_Advance_StepLimitExceeded(t *testing.T) {
	scheduler, store := newTestScheduler(t, nil, &fakeDispatcher{})

	ctx := context.Background()
	def := linearDefinition()
	require.NoError(t, store.SaveDefinition(ctx, def))

	// Seed the counter at the limit directly; the guard only looks at
	// step_count, not at how the instance got there.
	require.NoError(t, store.CreateInstance(ctx, &models.WorkflowInstance{
		ID:              "inst-1",
		WorkflowID:      def.ID,
		WorkflowVersion: def.Version,
		Status:          models.InstanceStatusRunning,
		CurrentNodeID:   def.StartNodeID,
		StepCount:       DefaultMaxSteps,
		StartTime:       time.Now().UTC(),
		History:         []models.HistoryEntry{},
	}))

	require.NoError(t, scheduler.Advance(ctx, "inst-1"))

	after, err := store.InstanceByID(ctx, "inst-1")
	require.NoError(t, err)

	assert.Equal(t, models.InstanceStatusFailed, after.Status)
	assert.Equal(t, models.FailureReasonStepLimitExceeded, after.FailureReason)
}

func TestScheduler_Advance_ConfiguredStepLimit(t *testing.T) {
	capability := &fakeCapability{name: "payments.charge"}
	scheduler, store := newTestScheduler(t, capability, &fakeDispatcher{}, WithMaxSteps(2))

	ctx := context.Background()
	seedInstance(t, store, linearDefinition(), map[string]any{})

	// start and charge fit inside the limit; the third advance trips it.
	require.NoError(t, scheduler.Advance(ctx, "inst-1"))
	require.NoError(t, scheduler.Advance(ctx, "inst-1"))
	require.NoError(t, scheduler.Advance(ctx, "inst-1"))

	after, err := store.InstanceByID(ctx, "inst-1")
	require.NoError(t, err)

	assert.Equal(t, models.InstanceStatusFailed, after.Status)
	assert.Equal(t, models.FailureReasonStepLimitExceeded, after.FailureReason)
}

func TestScheduler_Advance_UnknownInstance(t *testing.T) {
	scheduler, _ := newTestScheduler(t, nil, &fakeDispatcher{})

	err := scheduler.Advance(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsInstanceNotFound(err))
}
