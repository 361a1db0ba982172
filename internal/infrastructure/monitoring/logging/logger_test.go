package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFieldConstructors(t *testing.T) {
	assert.Equal(t, Field{Key: "k", Value: "v"}, String("k", "v"))
	assert.Equal(t, Field{Key: "n", Value: 3}, Int("n", 3))
	assert.Equal(t, Field{Key: "f", Value: 0.5}, Float64("f", 0.5))
	assert.Equal(t, Field{Key: "b", Value: true}, Bool("b", true))
	assert.Equal(t, Field{Key: "d", Value: time.Second}, Duration("d", time.Second))
	assert.Equal(t, Field{Key: "error", Value: "boom"}, Err(errors.New("boom")))
	assert.Equal(t, Field{Key: "error", Value: "<nil>"}, Err(nil))
}

func TestZapLogger_EmitsFields(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	log := NewLoggerFromCore(core)

	log.Info("classification completed", String("query_id", "q-1"), Int("candidates", 3))

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "classification completed", entries[0].Message)
	assert.Equal(t, "q-1", entries[0].ContextMap()["query_id"])
}

func TestZapLogger_WithAndNamed(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	log := NewLoggerFromCore(core).Named("retrieval").With(String("component", "engine"))

	log.Warn("precedent pool below minimum")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "retrieval", entries[0].LoggerName)
	assert.Equal(t, "engine", entries[0].ContextMap()["component"])
}

func TestNewLogger_Defaults(t *testing.T) {
	log, err := NewLogger(LogConfig{})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("something-else"))
}

func TestDefaultLogger(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	nop := NewNopLogger()
	SetDefault(nop)
	assert.Equal(t, nop, Default())

	// nil is ignored
	SetDefault(nil)
	assert.Equal(t, nop, Default())
}
