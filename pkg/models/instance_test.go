package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lexflow/lexflow/pkg/models"
	"github.com/lexflow/lexflow/pkg/testutil"
)

func TestInstance_IsTerminal(t *testing.T) {
	tests := []struct {
		status   models.InstanceStatus
		terminal bool
	}{
		{models.InstanceStatusRunning, false},
		{models.InstanceStatusPaused, false},
		{models.InstanceStatusCompleted, true},
		{models.InstanceStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			instance := testutil.CreateTestInstance(testutil.WithInstanceStatus(tt.status))

			assert.Equal(t, tt.terminal, instance.IsTerminal())
		})
	}
}

func TestInstance_DataSnapshot_Isolated(t *testing.T) {
	instance := testutil.CreateTestInstance()
	instance.Data = map[string]any{"amount": 120.0}

	snapshot := instance.DataSnapshot()
	snapshot["amount"] = 0.0
	snapshot["injected"] = true

	assert.Equal(t, 120.0, instance.Data["amount"])
	assert.NotContains(t, instance.Data, "injected")
}

func TestInstance_DataSnapshot_NilData(t *testing.T) {
	instance := testutil.CreateTestInstance()
	instance.Data = nil

	snapshot := instance.DataSnapshot()

	assert.NotNil(t, snapshot)
	assert.Empty(t, snapshot)
}
