package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLoggerWritesTaggedLinesToConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	require.NoError(t, InitLogger(Options{Level: "debug", LogPath: dir, Console: &console}))
	t.Cleanup(Close)

	NewLogger("server").Info("listening", zap.String("addr", ":8080"))
	Close()

	assert.Contains(t, console.String(), "server")
	assert.Contains(t, console.String(), "listening")
	assert.Contains(t, console.String(), "INFO")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	content, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(content), "listening")
}

func TestLevelFiltersEntries(t *testing.T) {
	var console bytes.Buffer
	require.NoError(t, InitLogger(Options{Level: "warn", Console: &console}))
	t.Cleanup(Close)

	log := NewLogger("ui")
	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "shown")
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}
