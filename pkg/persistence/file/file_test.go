package file

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexflow/lexflow/pkg/models"
	"github.com/lexflow/lexflow/pkg/persistence"
)

func newTestPersistence(t *testing.T) *Persistence {
	t.Helper()

	p, err := NewPersistence(t.TempDir())
	require.NoError(t, err)

	return p
}

func sampleDefinition(id string, version int) *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		ID:          id,
		Name:        "Contract intake",
		Version:     version,
		StartNodeID: "begin",
		Triggers:    []string{"document.uploaded"},
		Nodes: map[string]*models.WorkflowNode{
			"begin": {ID: "begin", Type: models.NodeTypeStart, Connections: []string{"done"}},
			"done":  {ID: "done", Type: models.NodeTypeEnd},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func sampleInstance(id string) *models.WorkflowInstance {
	return &models.WorkflowInstance{
		ID:              id,
		WorkflowID:      "wf-1",
		WorkflowVersion: 1,
		Status:          models.InstanceStatusRunning,
		CurrentNodeID:   "begin",
		Data:            map[string]any{"document_id": "doc-1"},
		StartTime:       time.Now().UTC(),
		History:         []models.HistoryEntry{},
	}
}

func TestSaveDefinition_AppendOnly(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.SaveDefinition(ctx, sampleDefinition("wf-1", 1)))

	err := p.SaveDefinition(ctx, sampleDefinition("wf-1", 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrDefinitionVersionExists)

	// A new version of the same definition is fine.
	require.NoError(t, p.SaveDefinition(ctx, sampleDefinition("wf-1", 2)))
}

func TestDefinitionByID_ReturnsLatestVersion(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.SaveDefinition(ctx, sampleDefinition("wf-1", 1)))
	require.NoError(t, p.SaveDefinition(ctx, sampleDefinition("wf-1", 3)))
	require.NoError(t, p.SaveDefinition(ctx, sampleDefinition("wf-1", 2)))

	definition, err := p.DefinitionByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, 3, definition.Version)

	bound, err := p.DefinitionByVersion(ctx, "wf-1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, bound.Version)

	_, err = p.DefinitionByID(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrDefinitionNotFound)
}

func TestDefinitionsByTrigger(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	withTrigger := sampleDefinition("wf-1", 1)
	withoutTrigger := sampleDefinition("wf-2", 1)
	withoutTrigger.Triggers = []string{"manual.request"}

	require.NoError(t, p.SaveDefinition(ctx, withTrigger))
	require.NoError(t, p.SaveDefinition(ctx, withoutTrigger))

	matches, err := p.DefinitionsByTrigger(ctx, "document.uploaded")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "wf-1", matches[0].ID)
}

func TestCreateInstance_RejectsDuplicate(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.CreateInstance(ctx, sampleInstance("inst-1")))

	err := p.CreateInstance(ctx, sampleInstance("inst-1"))
	assert.ErrorIs(t, err, persistence.ErrInstanceExists)
}

func TestApplyTransition(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.CreateInstance(ctx, sampleInstance("inst-1")))

	exited := time.Now().UTC()
	err := p.ApplyTransition(ctx, persistence.Transition{
		InstanceID:     "inst-1",
		ExpectedNodeID: "begin",
		NextNodeID:     "done",
		Status:         models.InstanceStatusRunning,
		DataDelta:      map[string]any{"risk_score": 0.4},
		Entry: models.HistoryEntry{
			NodeID:    "begin",
			EnteredAt: exited,
			ExitedAt:  &exited,
			Outcome:   string(models.OutcomeSuccess),
		},
	})
	require.NoError(t, err)

	instance, err := p.InstanceByID(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "done", instance.CurrentNodeID)
	assert.Equal(t, 1, instance.StepCount)
	assert.Equal(t, 0.4, instance.Data["risk_score"])
	assert.Equal(t, "doc-1", instance.Data["document_id"])
	require.Len(t, instance.History, 1)
}

func TestApplyTransition_ConflictOnStaleNode(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.CreateInstance(ctx, sampleInstance("inst-1")))

	err := p.ApplyTransition(ctx, persistence.Transition{
		InstanceID:     "inst-1",
		ExpectedNodeID: "some-other-node",
		NextNodeID:     "done",
		Status:         models.InstanceStatusRunning,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrTransitionConflict)
	assert.True(t, persistence.IsTransitionConflict(err))
}

func TestApplyTransition_ConcurrentAdvances(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.CreateInstance(ctx, sampleInstance("inst-1")))

	transition := persistence.Transition{
		InstanceID:     "inst-1",
		ExpectedNodeID: "begin",
		NextNodeID:     "done",
		Status:         models.InstanceStatusRunning,
		Entry:          models.HistoryEntry{NodeID: "begin", Outcome: string(models.OutcomeSuccess)},
	}

	var wg sync.WaitGroup

	results := make([]error, 2)

	for i := range results {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			results[i] = p.ApplyTransition(ctx, transition)
		}(i)
	}

	wg.Wait()

	conflicts := 0

	for _, err := range results {
		if err != nil {
			assert.ErrorIs(t, err, persistence.ErrTransitionConflict)

			conflicts++
		}
	}

	assert.Equal(t, 1, conflicts, "exactly one advance must lose the race")

	instance, err := p.InstanceByID(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, 1, instance.StepCount)
}

func TestApplyTransition_TerminalInstance(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	instance := sampleInstance("inst-1")
	instance.Status = models.InstanceStatusFailed
	require.NoError(t, p.CreateInstance(ctx, instance))

	err := p.ApplyTransition(ctx, persistence.Transition{
		InstanceID:     "inst-1",
		ExpectedNodeID: "begin",
		Status:         models.InstanceStatusRunning,
	})

	assert.ErrorIs(t, err, persistence.ErrInstanceTerminal)
}

func TestUpdateInstanceStatus(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.CreateInstance(ctx, sampleInstance("inst-1")))

	err := p.UpdateInstanceStatus(ctx, persistence.StatusChange{
		InstanceID: "inst-1",
		From:       []models.InstanceStatus{models.InstanceStatusRunning},
		To:         models.InstanceStatusPaused,
	})
	require.NoError(t, err)

	instance, err := p.InstanceByID(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, models.InstanceStatusPaused, instance.Status)

	// Pausing an already paused instance is rejected by the From guard.
	err = p.UpdateInstanceStatus(ctx, persistence.StatusChange{
		InstanceID: "inst-1",
		From:       []models.InstanceStatus{models.InstanceStatusRunning},
		To:         models.InstanceStatusPaused,
	})
	assert.ErrorIs(t, err, persistence.ErrInvalidStatusChange)
}

func TestUpdateInstanceStatus_AppendsEntry(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.CreateInstance(ctx, sampleInstance("inst-1")))

	completedAt := time.Now().UTC()
	err := p.UpdateInstanceStatus(ctx, persistence.StatusChange{
		InstanceID:    "inst-1",
		From:          []models.InstanceStatus{models.InstanceStatusRunning},
		To:            models.InstanceStatusFailed,
		FailureReason: models.FailureReasonCancelled,
		CompletedAt:   &completedAt,
		Entry: &models.HistoryEntry{
			NodeID:    "begin",
			EnteredAt: completedAt,
			ExitedAt:  &completedAt,
			Outcome:   string(models.OutcomeFailure),
			Error:     models.FailureReasonCancelled,
		},
	})
	require.NoError(t, err)

	instance, err := p.InstanceByID(ctx, "inst-1")
	require.NoError(t, err)
	require.Len(t, instance.History, 1)
	assert.Equal(t, "begin", instance.History[0].NodeID)
	assert.Equal(t, models.FailureReasonCancelled, instance.History[0].Error)
}
