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
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// simulationReport mirrors the simulation service's report payload.
type simulationReport struct {
	BaseVersion int64 `json:"base_version"`
	Valid       bool  `json:"valid"`
	Violations  []struct {
		Code    string `json:"code"`
		Path    string `json:"path"`
		Message string `json:"message"`
	} `json:"violations,omitempty"`
	ApplyFailure *struct {
		Index   int    `json:"index"`
		Op      string `json:"op"`
		Path    string `json:"path"`
		Message string `json:"message"`
	} `json:"apply_failure,omitempty"`
	Issues []struct {
		Code    string `json:"code"`
		Path    string `json:"path"`
		Message string `json:"message"`
	} `json:"issues,omitempty"`
	Summary []string `json:"summary,omitempty"`
}

func runSimulate(cmd *cobra.Command, args []string) {
	ops := loadOperations(args[0])
	env, _ := apiPost("/v1/spec/simulate", map[string]any{
		"base_version": resolveBaseVersion(),
		"operations":   ops,
	})
	if !env.OK {
		failOnAPIError(env)
	}
	if rawOutput {
		printData(env)
		return
	}
	var report simulationReport
	decodeData(env, &report)
	renderReport(&report)
	if !report.Valid {
		os.Exit(1)
	}
}

func runCommit(cmd *cobra.Command, args []string) {
	ops := loadOperations(args[0])
	env, status := apiPost("/v1/spec/commit", map[string]any{
		"base_version": resolveBaseVersion(),
		"operations":   ops,
		"note":         commitNote,
	})
	if !env.OK {
		// A rejected patch carries the full report in the error details.
		if env.Error != nil && len(env.Error.Details) > 0 && status == 422 {
			var report simulationReport
			if err := json.Unmarshal(env.Error.Details, &report); err == nil {
				fmt.Fprintf(os.Stderr, "Commit rejected [%s]: %s\n", env.Error.Code, env.Error.Message)
				renderReport(&report)
				os.Exit(1)
			}
		}
		failOnAPIError(env)
	}
	if rawOutput {
		printData(env)
		return
	}
	var payload struct {
		Version int64            `json:"version"`
		Report  simulationReport `json:"report"`
	}
	decodeData(env, &payload)
	fmt.Printf("Committed version %d\n", payload.Version)
	for _, line := range payload.Report.Summary {
		fmt.Printf("  %s\n", line)
	}
}

// loadOperations reads a patch file containing either a bare operation
// array or an object with an "operations" key.
func loadOperations(path string) []map[string]any {
	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", path, err)
		os.Exit(1)
	}
	var ops []map[string]any
	if err := json.Unmarshal(raw, &ops); err == nil {
		return ops
	}
	var wrapped struct {
		Operations []map[string]any `json:"operations"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Operations) > 0 {
		return wrapped.Operations
	}
	fmt.Fprintf(os.Stderr, "Failed to parse %s: expected a JSON array of operations\n", path)
	os.Exit(1)
	return nil
}

// resolveBaseVersion returns the --base flag when set, otherwise the
// current version from the server.
func resolveBaseVersion() int64 {
	if baseVersion > 0 {
		return baseVersion
	}
	env, _ := apiGet("/v1/spec")
	if !env.OK {
		failOnAPIError(env)
	}
	var rec versionRecord
	decodeData(env, &rec)
	return rec.Version
}

func renderReport(report *simulationReport) {
	if report.Valid {
		fmt.Printf("Patch is valid against version %d\n", report.BaseVersion)
	} else {
		fmt.Printf("Patch is INVALID against version %d\n", report.BaseVersion)
	}
	for _, v := range report.Violations {
		fmt.Printf("  violation [%s] %s: %s\n", v.Code, v.Path, v.Message)
	}
	if f := report.ApplyFailure; f != nil {
		fmt.Printf("  apply failed at operation %d (%s %s): %s\n", f.Index, f.Op, f.Path, f.Message)
	}
	for _, issue := range report.Issues {
		fmt.Printf("  issue [%s] %s: %s\n", issue.Code, issue.Path, issue.Message)
	}
	for _, line := range report.Summary {
		fmt.Printf("  %s\n", line)
	}
}
