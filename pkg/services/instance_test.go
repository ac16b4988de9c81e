package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lexflow/lexflow/pkg/mocks"
	"github.com/lexflow/lexflow/pkg/models"
	"github.com/lexflow/lexflow/pkg/persistence"
	"github.com/lexflow/lexflow/pkg/persistence/file"
)

func newInstanceService(t *testing.T) (*Instance, persistence.Persistence) {
	t.Helper()

	store, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewInstance(logger, store, nil), store
}

func seedRunningInstance(t *testing.T, store persistence.Persistence) {
	t.Helper()

	require.NoError(t, store.CreateInstance(context.Background(), &models.WorkflowInstance{
		ID:              "inst-1",
		WorkflowID:      "wf-1",
		WorkflowVersion: 1,
		Status:          models.InstanceStatusRunning,
		CurrentNodeID:   "review",
		Data:            map[string]any{},
		StepCount:       2,
		StartTime:       time.Now().UTC(),
		History:         []models.HistoryEntry{},
	}))
}

func TestInstance_PauseAndResume(t *testing.T) {
	svc, store := newInstanceService(t)
	ctx := context.Background()

	seedRunningInstance(t, store)

	paused, err := svc.Pause(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, models.InstanceStatusPaused, paused.Status)
	assert.Equal(t, "review", paused.CurrentNodeID)

	resumed, err := svc.Resume(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, models.InstanceStatusRunning, resumed.Status)
	assert.Equal(t, "review", resumed.CurrentNodeID)
	assert.Equal(t, 2, resumed.StepCount)
}

func TestInstance_Pause_NotRunning(t *testing.T) {
	svc, store := newInstanceService(t)
	ctx := context.Background()

	seedRunningInstance(t, store)

	_, err := svc.Pause(ctx, "inst-1")
	require.NoError(t, err)

	_, err = svc.Pause(ctx, "inst-1")
	require.Error(t, err)
	assert.True(t, IsConflictError(err))
}

func TestInstance_Resume_NotPaused(t *testing.T) {
	svc, store := newInstanceService(t)

	seedRunningInstance(t, store)

	_, err := svc.Resume(context.Background(), "inst-1")
	require.Error(t, err)
	assert.True(t, IsConflictError(err))
}

func TestInstance_Cancel_Running(t *testing.T) {
	svc, store := newInstanceService(t)

	seedRunningInstance(t, store)

	cancelled, err := svc.Cancel(context.Background(), "inst-1")
	require.NoError(t, err)

	assert.Equal(t, models.InstanceStatusFailed, cancelled.Status)
	assert.Equal(t, models.FailureReasonCancelled, cancelled.FailureReason)
	assert.NotNil(t, cancelled.CompletedTime)

	require.Len(t, cancelled.History, 1)
	entry := cancelled.History[0]
	assert.Equal(t, "review", entry.NodeID)
	assert.Equal(t, string(models.OutcomeFailure), entry.Outcome)
	assert.Equal(t, models.FailureReasonCancelled, entry.Error)
	assert.NotNil(t, entry.ExitedAt)
}

func TestInstance_Cancel_Paused(t *testing.T) {
	svc, store := newInstanceService(t)
	ctx := context.Background()

	seedRunningInstance(t, store)

	_, err := svc.Pause(ctx, "inst-1")
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, models.InstanceStatusFailed, cancelled.Status)
}

func TestInstance_Cancel_Terminal(t *testing.T) {
	svc, store := newInstanceService(t)
	ctx := context.Background()

	seedRunningInstance(t, store)

	_, err := svc.Cancel(ctx, "inst-1")
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, "inst-1")
	require.Error(t, err)
	assert.True(t, IsConflictError(err))
}

func TestInstance_LifecycleChangesPublishEvents(t *testing.T) {
	store, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	publisher := &mocks.MockEventBus{}
	publisher.On("Publish", mock.Anything, "inst-1", mock.Anything).Return(nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewInstance(logger, store, publisher)
	ctx := context.Background()

	seedRunningInstance(t, store)

	_, err = svc.Pause(ctx, "inst-1")
	require.NoError(t, err)

	_, err = svc.Resume(ctx, "inst-1")
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, "inst-1")
	require.NoError(t, err)

	publisher.AssertNumberOfCalls(t, "Publish", 3)
}

func TestInstance_GetByID_NotFound(t *testing.T) {
	svc, _ := newInstanceService(t)

	_, err := svc.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsInstanceNotFound(err))
}
