/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelUnmarshalText(t *testing.T) {
	tests := []struct {
		text    string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"info", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"error", LevelError, false},
		{"", LevelInfo, false},
		{"trace", "", true},
	}
	for _, tt := range tests {
		var l Level
		err := l.UnmarshalText([]byte(tt.text))
		if tt.wantErr {
			require.Error(t, err, tt.text)
			continue
		}
		require.NoError(t, err, tt.text)
		require.Equal(t, tt.want, l)
	}
}

func TestNewLoggerWritesJSONToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")
	logger, closeFn := NewLogger(&Config{
		Level:  LevelInfo,
		Format: FormatJSON,
		Output: OutputFile,
		File:   FileConfig{Path: logPath},
	})

	logger.Info("queue started", Int("maxsize", 10))
	logger.Debug("must be filtered out")
	logger.With(String("component", "limiter")).Warn("pass refused")
	closeFn()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "queue started")
	require.Contains(t, string(data), `"maxsize":10`)
	require.Contains(t, string(data), `"component":"limiter"`)
	require.NotContains(t, string(data), "must be filtered out")

	// Every line is a valid JSON object with a time field.
	for _, line := range splitLines(data) {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &entry))
		require.Contains(t, entry, "time")
	}
}

func TestNewLoggerTextFormat(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")
	logger, closeFn := NewLogger(&Config{
		Level:   LevelDebug,
		Format:  FormatText,
		Output:  OutputFile,
		NoColor: true,
		File:    FileConfig{Path: logPath},
	})

	logger.Debugf("worker %d retrieved %q", 3, "job")
	closeFn()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.Contains(t, string(data), `worker 3 retrieved "job"`)
}

func TestDisabledLogger(t *testing.T) {
	logger := NewDisabledLogger()
	require.NotPanics(t, func() {
		logger.Debug("a")
		logger.Info("b", String("k", "v"))
		logger.Warnf("c %d", 1)
		logger.With(Int("n", 1)).Error("d")
	})
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, data[start:i])
			}
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}
