package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestExtractLoggerFromContext(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	ctx := SetLoggerInContext(context.Background(), logger)
	ExtractLoggerFromContext(ctx).Info("hello")

	assert.Equal(t, 1, logs.Len())
	assert.NotNil(t, ExtractLoggerFromContext(context.Background()))
	assert.NotPanics(t, func() {
		ExtractLoggerFromContext(context.Background()).Info("dropped")
	})
}

func TestNewLogger_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := NewLogger(&Config{
		FilePath: path,
		Level:    "info",
		Env:      "production",
		AppID:    "brain-trails",
	})
	require.NoError(t, err)

	logger.Debug("skipped")
	logger.Info("written")
	require.NoError(t, logger.Sync())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"message":"written"`)
	assert.Contains(t, string(content), `"service.id":"brain-trails"`)
	assert.NotContains(t, string(content), "skipped")
}

func TestNewLogger_UnknownLevel(t *testing.T) {
	_, err := NewLogger(&Config{Level: "verbose"})
	assert.Error(t, err)
}
