// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/datacat-dev/datacat/env"
)

// mockDebugProvider implements DebugProvider for testing
type mockDebugProvider struct {
	debug bool
}

func (m *mockDebugProvider) IsDebug() bool {
	return m.debug
}

func TestStructuredLogsCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		envValue string
		expected bool
	}{
		{"Default Case", "", false},
		{"Explicitly True", "true", true},
		{"Explicitly False", "false", false},
		{"Invalid Value", "not-a-bool", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			reader := env.MapReader{structuredLogsVar: tt.envValue}
			if got := structuredLogs(reader); got != tt.expected {
				t.Errorf("structuredLogs() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConsoleLogger(t *testing.T) { //nolint:paralleltest // Uses global logger state
	const (
		levelDebug = "DEBUG"
		levelInfo  = "INFO"
		levelWarn  = "WARN"
		levelError = "ERROR"
	)

	formattedLogTestCases := []struct {
		level    string
		message  string
		key      string
		value    string
		expected string
	}{
		{levelDebug, "debug message %s and %s", "key", "value", "debug message key and value"},
		{levelInfo, "info message %s and %s", "key", "value", "info message key and value"},
		{levelWarn, "warn message %s and %s", "key", "value", "warn message key and value"},
		{levelError, "error message %s and %s", "key", "value", "error message key and value"},
	}

	for _, tc := range formattedLogTestCases { //nolint:paralleltest // Uses global logger state
		t.Run("FormattedLogs_"+tc.level, func(t *testing.T) {
			var buf bytes.Buffer

			config := zap.NewDevelopmentConfig()
			config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
			config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
			config.DisableStacktrace = true
			config.DisableCaller = true

			core := zapcore.NewCore(
				zapcore.NewConsoleEncoder(config.EncoderConfig),
				zapcore.AddSync(&buf),
				zapcore.DebugLevel,
			)

			zap.ReplaceGlobals(zap.New(core))

			switch tc.level {
			case levelDebug:
				Debugf(tc.message, tc.key, tc.value)
			case levelInfo:
				Infof(tc.message, tc.key, tc.value)
			case levelWarn:
				Warnf(tc.message, tc.key, tc.value)
			case levelError:
				Errorf(tc.message, tc.key, tc.value)
			}

			output := buf.String()
			assert.Contains(t, output, tc.level, "Expected log entry '%s' to contain log level '%s'", output, tc.level)
			assert.Contains(t, output, tc.expected, "Expected log entry '%s' to contain message '%s'", output, tc.expected)
		})
	}
}

func TestInitializeWithDebug(t *testing.T) { //nolint:paralleltest // Uses global logger state
	t.Run("Debug Mode Enabled", func(t *testing.T) { //nolint:paralleltest // Uses global logger state
		reader := env.MapReader{structuredLogsVar: "true"}
		InitializeWithOptions(reader, &mockDebugProvider{debug: true})

		core, observedLogs := observer.New(zapcore.DebugLevel)
		zap.ReplaceGlobals(zap.New(core))

		Debug("debug test message")

		allEntries := observedLogs.All()
		require.Len(t, allEntries, 1, "Expected one log entry")
		assert.Equal(t, "debug", allEntries[0].Level.String())
	})

	t.Run("Debug Mode Disabled", func(t *testing.T) { //nolint:paralleltest // Uses global logger state
		reader := env.MapReader{structuredLogsVar: "true"}
		InitializeWithOptions(reader, &mockDebugProvider{debug: false})

		core, observedLogs := observer.New(zapcore.InfoLevel)
		zap.ReplaceGlobals(zap.New(core))

		Debug("debug test message - should not appear")
		Info("info test message")

		allEntries := observedLogs.All()
		require.Len(t, allEntries, 1, "Expected only one log entry (info)")
		assert.Equal(t, "info", allEntries[0].Level.String())
	})
}

func TestStructuredLogging(t *testing.T) { //nolint:paralleltest // Uses global logger state
	core, observedLogs := observer.New(zapcore.InfoLevel)
	zap.ReplaceGlobals(zap.New(core))

	Infow("loaded collection", "resources", 4, "filename", "ex1.json")

	allEntries := observedLogs.All()
	require.Len(t, allEntries, 1)
	entry := allEntries[0]
	assert.Equal(t, "loaded collection", entry.Message)
	assert.Equal(t, int64(4), entry.ContextMap()["resources"])
	assert.Equal(t, "ex1.json", entry.ContextMap()["filename"])
}

func TestNewLogr(t *testing.T) { //nolint:paralleltest // Uses global logger state
	core, observedLogs := observer.New(zapcore.InfoLevel)
	zap.ReplaceGlobals(zap.New(core))

	log := NewLogr()
	log.Info("via logr", "k", "v")

	allEntries := observedLogs.All()
	require.Len(t, allEntries, 1)
	assert.Equal(t, "via logr", allEntries[0].Message)
}
