package registry

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexflow/lexflow/pkg/models"
	"github.com/lexflow/lexflow/pkg/nodes/decision"
	"github.com/lexflow/lexflow/pkg/nodes/end"
	"github.com/lexflow/lexflow/pkg/nodes/notification"
	"github.com/lexflow/lexflow/pkg/nodes/process"
	"github.com/lexflow/lexflow/pkg/nodes/start"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	r := NewRegistry(slog.Default())
	r.RegisterExecutor(start.NewFactory())
	r.RegisterExecutor(process.NewFactory(r))
	r.RegisterExecutor(decision.NewFactory())
	r.RegisterExecutor(notification.NewFactory(nil))
	r.RegisterExecutor(end.NewFactory())

	return r
}

func TestCreateExecutor(t *testing.T) {
	r := newTestRegistry(t)

	executor, err := r.CreateExecutor(context.Background(), models.NodeTypeDecision)
	require.NoError(t, err)
	assert.Equal(t, models.NodeTypeDecision, executor.Type())

	_, err = r.CreateExecutor(context.Background(), models.NodeType("unknown"))
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	r := newTestRegistry(t)

	message, ok := r.HealthCheck()
	assert.True(t, ok, message)

	incomplete := NewRegistry(slog.Default())
	incomplete.RegisterExecutor(start.NewFactory())

	_, ok = incomplete.HealthCheck()
	assert.False(t, ok)
}

func TestValidateNodeConfig(t *testing.T) {
	r := newTestRegistry(t)

	testCases := []struct {
		name    string
		node    *models.WorkflowNode
		wantErr bool
	}{
		{
			name: "valid process config",
			node: &models.WorkflowNode{
				ID:   "p1",
				Type: models.NodeTypeProcess,
				Config: models.NodeConfig{
					Process: &models.ProcessConfig{Capability: "document_analysis", TimeoutMs: 5000},
				},
			},
		},
		{
			name: "process config missing capability section",
			node: &models.WorkflowNode{
				ID:   "p2",
				Type: models.NodeTypeProcess,
			},
			wantErr: true,
		},
		{
			name: "valid decision config",
			node: &models.WorkflowNode{
				ID:   "d1",
				Type: models.NodeTypeDecision,
				Config: models.NodeConfig{
					Decision: &models.DecisionConfig{Expression: "amount > 100"},
				},
			},
		},
		{
			name: "notification missing recipients",
			node: &models.WorkflowNode{
				ID:   "n1",
				Type: models.NodeTypeNotification,
				Config: models.NodeConfig{
					Notification: &models.NotificationConfig{Recipients: []string{}, Template: "t"},
				},
			},
			wantErr: true,
		},
		{
			name: "start needs no config",
			node: &models.WorkflowNode{ID: "s1", Type: models.NodeTypeStart},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := r.ValidateNodeConfig(tc.node)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
