package logger

import (
	"testing"

	"github.com/straye-as/procurement-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_ParsesLevel(t *testing.T) {
	log, err := NewLogger(&config.LoggingConfig{Level: "warn", Format: "json"}, &config.AppConfig{Name: "test", Environment: "development"})
	require.NoError(t, err)

	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
}

func TestNewLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	log, err := NewLogger(&config.LoggingConfig{Level: "loud"}, &config.AppConfig{Name: "test"})
	require.NoError(t, err)

	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}
