package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer for testing. Returns
// the buffer and a cleanup function to restore original output.
func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false
	mu.Unlock()

	reconfigure()

	cleanup := func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		reconfigure()
	}

	return buf, cleanup
}

func TestLevelFiltering(t *testing.T) {
	t.Run("DebugLevelShowsAllMessages", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("DEBUG")
		Debug("opened page", "path", "/tmp/page.dat")
		Info("insert", "key", "peter")
		Warn("defrag stale gap rebased")
		Error("mmap creation failed")

		out := buf.String()
		assert.Contains(t, out, "DEBUG")
		assert.Contains(t, out, "opened page")
		assert.Contains(t, out, "INFO")
		assert.Contains(t, out, "insert")
		assert.Contains(t, out, "WARN")
		assert.Contains(t, out, "ERROR")
	})

	t.Run("InfoLevelFiltersDebug", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		Debug("should not appear")
		Info("should appear")

		out := buf.String()
		assert.NotContains(t, out, "should not appear")
		assert.Contains(t, out, "should appear")
	})
}

func TestSetLevelIgnoresInvalidInput(t *testing.T) {
	SetLevel("INFO")
	SetLevel("NOT_A_LEVEL")
	assert.Equal(t, LevelInfo, Level(currentLevel.Load()))
}

func TestJSONFormat(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetFormat("json")
	SetLevel("INFO")
	Info("defrag step", "bytes_reclaimed", 29, "entries_reindexed", 2)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "defrag step", decoded["msg"])
	assert.EqualValues(t, 29, decoded["bytes_reclaimed"])

	SetFormat("text")
}

func TestSetFormatIgnoresInvalidInput(t *testing.T) {
	SetFormat("text")
	SetFormat("xml")
	format, _ := currentFormat.Load().(string)
	assert.Equal(t, "text", format)
}

func TestWithBindsFields(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	SetFormat("text")
	l := With("component", "page")
	l.Info("ready")

	assert.Contains(t, buf.String(), "component=page")
}
