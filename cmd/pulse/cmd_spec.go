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
	"log"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

type versionRecord struct {
	Version   int64           `json:"version"`
	Document  json.RawMessage `json:"document"`
	CreatedAt time.Time       `json:"created_at"`
	Note      string          `json:"note,omitempty"`
}

func runSpecGet(cmd *cobra.Command, args []string) {
	env, _ := apiGet("/v1/spec")
	if !env.OK {
		failOnAPIError(env)
	}
	if rawOutput {
		printData(env)
		return
	}
	var rec versionRecord
	decodeData(env, &rec)
	fmt.Printf("Version %d (created %s)\n", rec.Version, rec.CreatedAt.Format(time.RFC3339))
	if rec.Note != "" {
		fmt.Printf("Note: %s\n", rec.Note)
	}
	fmt.Println(indentJSON(rec.Document))
}

func runSpecHistory(cmd *cobra.Command, args []string) {
	env, _ := apiGet(fmt.Sprintf("/v1/spec/history?limit=%d", historyLimit))
	if !env.OK {
		failOnAPIError(env)
	}
	if rawOutput {
		printData(env)
		return
	}
	var payload struct {
		Versions []versionRecord `json:"versions"`
	}
	decodeData(env, &payload)
	if len(payload.Versions) == 0 {
		fmt.Println("No versions stored.")
		return
	}
	for _, rec := range payload.Versions {
		line := fmt.Sprintf("v%-4d %s", rec.Version, rec.CreatedAt.Format(time.RFC3339))
		if rec.Note != "" {
			line += "  " + rec.Note
		}
		fmt.Println(line)
	}
}

func runSpecRollback(cmd *cobra.Command, args []string) {
	target, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || target < 1 {
		log.Fatalf("Invalid version %q: expected a positive integer", args[0])
	}
	env, _ := apiPost("/v1/spec/rollback", map[string]any{"target_version": target})
	if !env.OK {
		failOnAPIError(env)
	}
	if rawOutput {
		printData(env)
		return
	}
	var payload struct {
		Version         int64 `json:"version"`
		RestoredVersion int64 `json:"restored_version"`
	}
	decodeData(env, &payload)
	fmt.Printf("Restored version %d as new version %d\n", payload.RestoredVersion, payload.Version)
}
