package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speech.log")
	l := NewIsolatedLogger(path)

	l.Info("Speech", "Device acquired", map[string]interface{}{"owner": "sess-1"})
	l.Debug("Speech", "below the file level", nil)
	l.Error("Speech", "Transcription failed", map[string]interface{}{"error": "timeout"})
	_ = l.Sync()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}

	require.Len(t, lines, 2)
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "Speech", lines[0]["module"])
	assert.Equal(t, "Device acquired", lines[0]["message"])
	assert.Equal(t, "timeout", lines[1]["error_ref"])
}

func TestNopLogger(t *testing.T) {
	var l ILogger = NewNopLogger()
	l.Warn("Test", "nothing happens", nil)
	assert.NoError(t, l.Sync())
}
