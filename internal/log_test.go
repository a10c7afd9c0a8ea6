package internal

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_LevelsAndComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogLevelInfo).WithOutput(log.New(&buf, "", 0)).WithComponent("Batch")

	logger.Debug("hidden %d", 1)
	logger.Info("pairs=%d", 3)
	logger.Error("failed: %s", "boom")

	assert.Equal(t, "[INFO] [Batch] pairs=3\n[ERROR] [Batch] failed: boom\n", buf.String())
}

func TestParseLogLevel(t *testing.T) {
	level, ok := ParseLogLevel("debug")
	assert.True(t, ok)
	assert.Equal(t, LogLevelDebug, level)

	level, ok = ParseLogLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, LogLevelInfo, level)
}

func TestLogger_NilIsSilent(t *testing.T) {
	var logger *Logger
	assert.NotPanics(t, func() { logger.Info("nothing") })
}

func TestLogger_NilDerivesNil(t *testing.T) {
	var logger *Logger
	derived := logger.WithComponent("Batch").WithOutput(log.New(&bytes.Buffer{}, "", 0))
	assert.Nil(t, derived)
	derived.Info("dropped %d", 1)
}
