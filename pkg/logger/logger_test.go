package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(Config{Level: "debug", Format: "json", Output: &buf})

	l.Error(errors.New("store unavailable"), "status pass failed", "patient_id", "p-1")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "status pass failed", entry["message"])
	assert.Equal(t, "store unavailable", entry["error"])
	assert.Equal(t, "p-1", entry["patient_id"])
}

func TestSetupLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(Config{Level: "warn", Format: "json", Output: &buf})

	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}
