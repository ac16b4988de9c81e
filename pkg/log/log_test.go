package log

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetup_LevelParsing(t *testing.T) {
	tests := []struct {
		level   string
		debugOn bool
		warnOn  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, true},
		{"WARNING", false, true},
		{"error", false, false},
		{"bogus", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			Setup(tt.level)

			ctx := context.Background()
			assert.Equal(t, tt.debugOn, slog.Default().Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.warnOn, slog.Default().Enabled(ctx, slog.LevelWarn))
		})
	}
}

func TestWithModule(t *testing.T) {
	Setup("info")

	logger := WithModule("scheduler")
	assert.NotNil(t, logger)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
}
