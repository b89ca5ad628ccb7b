package logi

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewLog is a process-wide singleton, so a single test covers init and reuse.
func TestNewLog_WritesJSONToFile(t *testing.T) {
	dir := t.TempDir()

	l, err := NewLog(&Config{LogDir: dir, LogFileName: "feed.log", Level: slog.LevelDebug})
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Same(t, l, GetLogger())

	again, err := NewLog(&Config{Stdout: true})
	require.NoError(t, err)
	assert.Same(t, l, again, "later calls return the first logger")

	data, err := os.ReadFile(filepath.Join(dir, "feed.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"logger initialized"`)
	assert.Contains(t, string(data), `"min_level":"DEBUG"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"WARN", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsDirWritable(t *testing.T) {
	assert.True(t, isDirWritable(filepath.Join(t.TempDir(), "nested")))
}
