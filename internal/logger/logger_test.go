package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew_JSONOutputWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})

	sub := log.WithComponent("tmdb")
	sub.Info().Str("query", "batman").Msg("search")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tmdb", entry["component"])
	assert.Equal(t, "batman", entry["query"])
	assert.Equal(t, "search", entry["message"])
	assert.Empty(t, log.FilePath())
	assert.NoError(t, log.Close())
}

func TestNew_WritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "console", Path: dir, Output: &buf})

	log.Info().Msg("hello file")
	require.NoError(t, log.Close())

	assert.Equal(t, filepath.Join(dir, FileName), log.FilePath())
	data, err := os.ReadFile(log.FilePath())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello file"`)
	assert.Contains(t, buf.String(), "hello file")
}
