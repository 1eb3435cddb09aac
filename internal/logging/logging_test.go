package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_WritesJSONLinesAtLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "framer.log")

	logger, err := New(path, "warn")
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("save failed", zap.String("id", "f1"))
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "save failed", entry["msg"])
	assert.Equal(t, "f1", entry["id"])
	assert.Equal(t, "warn", entry["level"])
	assert.Contains(t, entry, "ts")
}

func TestNew_RejectsBadInput(t *testing.T) {
	_, err := New(" ", "info")
	assert.Error(t, err)

	_, err = New(filepath.Join(t.TempDir(), "x.log"), "loud")
	assert.ErrorContains(t, err, "parse log level")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"DEBUG", zapcore.DebugLevel},
		{" error ", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "parseLevel(%q)", tt.in)
	}
}
