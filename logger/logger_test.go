package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

var parseLevelTestCases = []struct {
	input    string
	expected slog.Level
}{
	{input: "debug", expected: slog.LevelDebug},
	{input: "INFO", expected: slog.LevelInfo},
	{input: "warn", expected: slog.LevelWarn},
	{input: "warning", expected: slog.LevelWarn},
	{input: " error ", expected: slog.LevelError},
	{input: "", expected: slog.LevelInfo},
	{input: "verbose", expected: slog.LevelInfo},
}

func TestParseLevel(t *testing.T) {
	for _, testCase := range parseLevelTestCases {
		t.Run(testCase.input, func(t *testing.T) {
			assert := require.New(t)
			assert.Equal(testCase.expected, ParseLevel(testCase.input))
		})
	}
}

func TestNewWithWriterFiltersByLevel(t *testing.T) {
	assert := require.New(t)
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")

	log.Info("dropped")
	assert.Zero(buf.Len(), "info should be filtered at warn level")

	log.Warn("kept", "slug", "hello-world")
	var entry map[string]any
	assert.NoError(json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal("kept", entry["msg"])
	assert.Equal("hello-world", entry["slug"])
	assert.Contains(entry, "source")
}
