package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetFormat("text")
	SetLevel("INFO")
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetFormat("text")
		SetLevel("INFO")
	})
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)

	Debug("hidden %d", 1)
	Info("shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown 2")
	assert.Contains(t, out, "level=INFO")
}

func TestSetLevel_CaseInsensitive(t *testing.T) {
	buf := capture(t)

	SetLevel("debug")
	Debug("now visible")

	assert.Contains(t, buf.String(), "now visible")
}

func TestSetLevel_UnknownKeepsCurrent(t *testing.T) {
	buf := capture(t)

	SetLevel("ERROR")
	SetLevel("bogus")
	Warn("suppressed")
	Error("kept")

	assert.NotContains(t, buf.String(), "suppressed")
	assert.Contains(t, buf.String(), "kept")
}

func TestJSONFormat(t *testing.T) {
	buf := capture(t)

	SetFormat("json")
	Warn("mounted %s", "CLOUD")

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "mounted CLOUD", record["msg"])
}

func TestInit_File(t *testing.T) {
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetFormat("text")
		SetLevel("INFO")
	})
	path := filepath.Join(t.TempDir(), "dittostore.log")

	closer, err := Init("INFO", "text", path)
	require.NoError(t, err)
	Info("to file")
	require.NoError(t, closer.Close())
	SetOutput(os.Stderr)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "to file"))
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}
