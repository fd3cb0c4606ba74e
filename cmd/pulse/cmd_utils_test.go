// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePatchFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patch.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOperations_BareArray(t *testing.T) {
	path := writePatchFile(t, `[{"op":"replace","path":"/title","value":"Q3"}]`)

	ops := loadOperations(path)

	require.Len(t, ops, 1)
	assert.Equal(t, "replace", ops[0]["op"])
	assert.Equal(t, "/title", ops[0]["path"])
}

func TestLoadOperations_WrappedObject(t *testing.T) {
	path := writePatchFile(t, `{"operations":[{"op":"remove","path":"/kpis/0"}]}`)

	ops := loadOperations(path)

	require.Len(t, ops, 1)
	assert.Equal(t, "remove", ops[0]["op"])
}

func TestDecodeEnvelope_SuccessPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true,"trace_id":"abc","data":{"version":3}}`))
	}))
	defer server.Close()
	apiURL = server.URL

	env, status := apiGet("/v1/spec")

	assert.Equal(t, http.StatusOK, status)
	require.True(t, env.OK)
	assert.Equal(t, "abc", env.TraceID)
	var data struct {
		Version int64 `json:"version"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, int64(3), data.Version)
}

func TestDecodeEnvelope_StructuredError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"ok":false,"error":{"code":"VERSION_CONFLICT","message":"stale version"}}`))
	}))
	defer server.Close()
	apiURL = server.URL

	env, status := apiPost("/v1/spec/commit", map[string]any{"base_version": 1})

	assert.Equal(t, http.StatusConflict, status)
	require.False(t, env.OK)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VERSION_CONFLICT", env.Error.Code)
}

func TestIndentJSON_FallsBackOnInvalidInput(t *testing.T) {
	assert.Equal(t, "not json", indentJSON(json.RawMessage("not json")))

	pretty := indentJSON(json.RawMessage(`{"a":1}`))
	assert.Contains(t, pretty, "\"a\": 1")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdefgh", 3))
}
