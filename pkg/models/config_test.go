package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lexflow/lexflow/pkg/models"
)

func TestProcessConfig_Defaults(t *testing.T) {
	cfg := &models.ProcessConfig{Capability: "payments.charge"}

	assert.Equal(t, models.DefaultTimeoutMs, cfg.Timeout())
	assert.Equal(t, models.DefaultMaxAttempts, cfg.Attempts())
}

func TestProcessConfig_Overrides(t *testing.T) {
	cfg := &models.ProcessConfig{
		Capability:  "payments.charge",
		TimeoutMs:   5000,
		MaxAttempts: 1,
	}

	assert.Equal(t, 5000, cfg.Timeout())
	assert.Equal(t, 1, cfg.Attempts())
}

func TestNotificationConfig_Attempts(t *testing.T) {
	cfg := &models.NotificationConfig{Recipients: []string{"ops@example.com"}, Template: "t"}
	assert.Equal(t, models.DefaultMaxAttempts, cfg.Attempts())

	cfg.MaxAttempts = 5
	assert.Equal(t, 5, cfg.Attempts())
}

func TestSuccessResult(t *testing.T) {
	result := models.Success("next-node", map[string]any{"charged": true})

	assert.Equal(t, models.OutcomeSuccess, result.Outcome)
	assert.Equal(t, "next-node", result.NextNodeID)
	assert.Equal(t, map[string]any{"charged": true}, result.DataDelta)
	assert.False(t, result.Completed)
}

func TestFailureResult(t *testing.T) {
	result := models.Failure(models.FailureReasonCapabilityTimeout, true)

	assert.Equal(t, models.OutcomeFailure, result.Outcome)
	assert.Equal(t, models.FailureReasonCapabilityTimeout, result.FailureReason)
	assert.True(t, result.Retryable)
	assert.Empty(t, result.NextNodeID)
}
