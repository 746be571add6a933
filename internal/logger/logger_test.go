package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		"":        zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestConsoleJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "debug", Format: "json", Console: &buf})
	require.NoError(t, err)
	defer func() { _ = log.Close() }()

	cl := log.WithComponent("remote")
	cl.Debug().Str("path", "/src").Msg("list")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "remote", line["component"])
	assert.Equal(t, "/src", line["path"])
	assert.Equal(t, "list", line["message"])
	assert.Empty(t, log.FilePath())
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "warn", Format: "json", Console: &buf})
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestFileOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	log, err := New(Config{Path: dir, FileName: "client.log"})
	require.NoError(t, err)

	log.Info().Msg("to file")
	require.NoError(t, log.Close())

	assert.Equal(t, filepath.Join(dir, "client.log"), log.FilePath())
	data, err := os.ReadFile(log.FilePath())
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"message":"to file"`), string(data))
}

func TestNoOutputsDiscards(t *testing.T) {
	log, err := New(Config{})
	require.NoError(t, err)
	log.Error().Msg("nowhere")
	assert.NoError(t, log.Close())
}
