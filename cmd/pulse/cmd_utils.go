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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// apiEnvelope mirrors the dashboard service's response wrapper.
type apiEnvelope struct {
	OK      bool            `json:"ok"`
	TraceID string          `json:"trace_id,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

// apiGet issues a GET against the dashboard API and returns the decoded
// envelope. Transport failures are fatal; API-level errors are returned
// to the caller so commands can render them.
func apiGet(path string) (*apiEnvelope, int) {
	resp, err := httpClient().Get(apiURL + path)
	if err != nil {
		log.Fatalf("Failed to reach the dashboard service at %s: %v", apiURL, err)
	}
	defer resp.Body.Close()
	return decodeEnvelope(resp)
}

// apiPost issues a POST with a JSON payload and returns the decoded envelope.
func apiPost(path string, payload any) (*apiEnvelope, int) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Fatalf("Failed to encode request payload: %v", err)
	}
	resp, err := httpClient().Post(apiURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("Failed to reach the dashboard service at %s: %v", apiURL, err)
	}
	defer resp.Body.Close()
	return decodeEnvelope(resp)
}

func decodeEnvelope(resp *http.Response) (*apiEnvelope, int) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Failed to read response body: %v", err)
	}
	var env apiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Fatalf("Unexpected response from the dashboard service (%s): %s",
			resp.Status, truncate(string(raw), 400))
	}
	return &env, resp.StatusCode
}

// failOnAPIError prints the structured error and exits non-zero. Commands
// call this when the envelope carries an error they cannot render better
// themselves.
func failOnAPIError(env *apiEnvelope) {
	if env.Error == nil {
		log.Fatalf("The dashboard service returned an error without details")
	}
	fmt.Fprintf(os.Stderr, "Error [%s]: %s\n", env.Error.Code, env.Error.Message)
	if len(env.Error.Details) > 0 {
		fmt.Fprintln(os.Stderr, indentJSON(env.Error.Details))
	}
	os.Exit(1)
}

// decodeJSON unmarshals a raw fragment into out.
func decodeJSON(raw json.RawMessage, out any) error {
	return json.Unmarshal(raw, out)
}

// decodeData unmarshals the envelope payload into out.
func decodeData(env *apiEnvelope, out any) {
	if err := json.Unmarshal(env.Data, out); err != nil {
		log.Fatalf("Failed to parse response data: %v", err)
	}
}

func indentJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func printData(env *apiEnvelope) {
	fmt.Println(indentJSON(env.Data))
}

// readJSONFile loads and unmarshals a JSON file into out.
func readJSONFile(path string, out any) {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", path, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Fatalf("Failed to parse %s: %v", path, err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
