package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/tinywasm/record/pkg/logger"
)

func TestNew(t *testing.T) {
	t.Run("defaults to info", func(t *testing.T) {
		log, err := logger.New(logger.Config{})
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("console debug", func(t *testing.T) {
		log, err := logger.New(logger.Config{Level: "DEBUG", Format: "console"})
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := logger.New(logger.Config{Level: "loud"})
		assert.Error(t, err)
	})
}
