package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONWhenNotTTY(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false, false)

	logger.Info("run finished", "status", 2)
	logger.Debug("hidden")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "run finished", entry["msg"])
	assert.EqualValues(t, 2, entry["status"])
}

func TestNewDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true, false)

	logger.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}
