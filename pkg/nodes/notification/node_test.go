package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lexflow/lexflow/pkg/mocks"
	"github.com/lexflow/lexflow/pkg/models"
	"github.com/lexflow/lexflow/pkg/protocol"
)

type stubDispatcher struct {
	err        error
	recipients []string
	template   string
	payload    map[string]any
}

func (d *stubDispatcher) Dispatch(_ context.Context, recipients []string, template string, payload map[string]any) error {
	d.recipients = recipients
	d.template = template
	d.payload = payload

	return d.err
}

func notificationNode() *models.WorkflowNode {
	return &models.WorkflowNode{
		ID:   "notify-legal",
		Type: models.NodeTypeNotification,
		Config: models.NodeConfig{
			Notification: &models.NotificationConfig{
				Recipients: []string{"legal@example.com"},
				Template:   "review_ready",
			},
		},
		Connections: []string{"wrap-up"},
	}
}

func TestExecute_DispatchesAndFollowsConnection(t *testing.T) {
	dispatcher := &stubDispatcher{}
	executor := NewExecutor(dispatcher)

	snapshot := map[string]any{"document_id": "doc-1"}
	result, err := executor.Execute(context.Background(), notificationNode(), snapshot)

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, result.Outcome)
	assert.Equal(t, "wrap-up", result.NextNodeID)
	assert.Equal(t, []string{"legal@example.com"}, dispatcher.recipients)
	assert.Equal(t, "review_ready", dispatcher.template)
	assert.Equal(t, "doc-1", dispatcher.payload["document_id"])
}

func TestExecute_TransientDispatchFailure(t *testing.T) {
	dispatcher := &stubDispatcher{err: protocol.TransientFailure(errors.New("smtp unavailable"))}
	executor := NewExecutor(dispatcher)

	result, err := executor.Execute(context.Background(), notificationNode(), map[string]any{})

	require.Error(t, err)
	assert.Equal(t, models.OutcomeFailure, result.Outcome)
	assert.Equal(t, models.FailureReasonDispatchError, result.FailureReason)
	assert.True(t, result.Retryable)
}

func TestExecute_PermanentDispatchFailure(t *testing.T) {
	dispatcher := &stubDispatcher{err: protocol.PermanentFailure(errors.New("unknown template"))}
	executor := NewExecutor(dispatcher)

	result, err := executor.Execute(context.Background(), notificationNode(), map[string]any{})

	require.Error(t, err)
	assert.False(t, result.Retryable)
}

func TestExecute_PassesSnapshotToDispatcher(t *testing.T) {
	dispatcher := &mocks.MockDispatcher{}
	dispatcher.On("Dispatch", mock.Anything, []string{"legal@example.com"}, "review_ready",
		map[string]any{"stage": "legal"}).Return(nil)

	executor := NewExecutor(dispatcher)

	_, err := executor.Execute(context.Background(), notificationNode(), map[string]any{"stage": "legal"})

	require.NoError(t, err)
	dispatcher.AssertExpectations(t)
}

func TestExecute_IncompleteConfig(t *testing.T) {
	executor := NewExecutor(&stubDispatcher{})
	node := &models.WorkflowNode{
		ID:          "broken",
		Type:        models.NodeTypeNotification,
		Connections: []string{"next"},
	}

	result, err := executor.Execute(context.Background(), node, map[string]any{})

	require.Error(t, err)
	assert.Equal(t, models.FailureReasonInvalidConfig, result.FailureReason)
}
