package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := New(Config{
		Level:    "debug",
		Dir:      tmpDir,
		Filename: "test.log",
	})

	assert.NoError(t, err)
	assert.NotNil(t, logger)

	err = logger.Close()
	assert.NoError(t, err)
}

func TestNew_NoFile(t *testing.T) {
	logger, err := New(Config{Level: "info"})

	assert.NoError(t, err)
	assert.NotNil(t, logger)
	assert.NoError(t, logger.Close())
}

func TestLogger_Info(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := New(Config{
		Level:    "info",
		Dir:      tmpDir,
		Filename: "info.log",
	})
	require.NoError(t, err)
	defer logger.Close()

	testMsg := "test info message"
	logger.Info("%s", testMsg)

	time.Sleep(10 * time.Millisecond)

	logFile := filepath.Join(tmpDir, "info.log")
	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), testMsg)
}

func TestLogger_TagAndFormat(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := New(Config{
		Level:    "debug",
		Dir:      tmpDir,
		Filename: "tag.log",
	})
	require.NoError(t, err)
	defer logger.Close()

	logger.InfoTag("HTTP", "request %d handled", 42)
	logger.DebugTag("Provider", "attempt %d of %d", 1, 3)

	time.Sleep(10 * time.Millisecond)

	content, err := os.ReadFile(filepath.Join(tmpDir, "tag.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "[HTTP] request 42 handled")
	assert.Contains(t, string(content), "[Provider] attempt 1 of 3")
}

func TestLogger_LevelFiltering(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := New(Config{
		Level:    "warn",
		Dir:      tmpDir,
		Filename: "warn.log",
	})
	require.NoError(t, err)
	defer logger.Close()

	logger.Info("should be filtered")
	logger.Warn("should appear")

	time.Sleep(10 * time.Millisecond)

	content, err := os.ReadFile(filepath.Join(tmpDir, "warn.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(content), "should be filtered")
	assert.Contains(t, string(content), "should appear")
}
