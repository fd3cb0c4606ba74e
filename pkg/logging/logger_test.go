// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()

	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  dir,
		Service: "dashboard",
		Quiet:   true,
	})
	logger.Info("spec committed", "version", 2)
	require.NoError(t, logger.Close())

	filename := "dashboard_" + time.Now().Format("2006-01-02") + ".log"
	content, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)

	assert.Contains(t, string(content), "spec committed")
	assert.Contains(t, string(content), `"version":2`)
	assert.Contains(t, string(content), `"service":"dashboard"`)
}

func TestLevelFilteringInFile(t *testing.T) {
	dir := t.TempDir()

	logger := New(Config{
		Level:   LevelWarn,
		LogDir:  dir,
		Service: "pulse",
		Quiet:   true,
	})
	logger.Debug("noise")
	logger.Info("also noise")
	logger.Warn("kept")
	require.NoError(t, logger.Close())

	filename := "pulse_" + time.Now().Format("2006-01-02") + ".log"
	content, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)

	assert.NotContains(t, string(content), "noise")
	assert.Contains(t, string(content), "kept")
}

func TestExporterReceivesEntries(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{
		Level:    LevelInfo,
		Service:  "dashboard",
		Quiet:    true,
		Exporter: exporter,
	})

	logger.Info("policy reloaded", "path", "/etc/pulse/policy.yaml")

	// Export is async; poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	for len(exporter.Entries()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, logger.Close())

	entries := exporter.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "policy reloaded", entries[0].Message)
	assert.Equal(t, LevelInfo, entries[0].Level)
	assert.Equal(t, "dashboard", entries[0].Service)
	assert.Equal(t, "/etc/pulse/policy.yaml", entries[0].Attrs["path"])
}

func TestExporterRespectsLevelFloor(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{
		Level:    LevelError,
		Quiet:    true,
		Exporter: exporter,
	})

	logger.Info("below the floor")
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, logger.Close())

	assert.Empty(t, exporter.Entries())
}

func TestWithAddsAttributes(t *testing.T) {
	dir := t.TempDir()

	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  dir,
		Service: "dashboard",
		Quiet:   true,
	})
	child := logger.With("request_id", "req-123")
	child.Info("handling request")
	require.NoError(t, logger.Close())

	filename := "dashboard_" + time.Now().Format("2006-01-02") + ".log"
	content, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)

	assert.Contains(t, string(content), `"request_id":"req-123"`)
}

func TestWriterExporter(t *testing.T) {
	var sb strings.Builder
	exporter := NewWriterExporter(&sb)

	err := exporter.Export(context.Background(), LogEntry{
		Timestamp: time.Now(),
		Level:     LevelWarn,
		Message:   "guardrail tripped",
		Attrs:     map[string]any{"collection": "kpis"},
	})
	require.NoError(t, err)

	assert.Contains(t, sb.String(), "WARN")
	assert.Contains(t, sb.String(), "guardrail tripped")
	assert.Contains(t, sb.String(), "kpis")
}

func TestArgsToMapIgnoresDanglingKey(t *testing.T) {
	m := argsToMap([]any{"a", 1, "b", "two", "dangling"})
	assert.Equal(t, map[string]any{"a": 1, "b": "two"}, m)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".pulse/logs"), expandPath("~/.pulse/logs"))
	assert.Equal(t, "/var/log/pulse", expandPath("/var/log/pulse"))
}
