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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	apiURL       string
	logDir       string
	baseVersion  int64
	commitNote   string
	historyLimit int
	rawOutput    bool
	fieldsFlag   []string

	rootCmd = &cobra.Command{
		Use:   "pulse",
		Short: "A cli to manage AleutianPulse dashboard specifications",
		Long: `Pulse is a tool for inspecting and evolving versioned dashboard
				specifications: preview patches, commit new versions, roll back,
				and run the insight engine against metric datasets.`,
	}

	// --- Spec Management ---
	specCmd = &cobra.Command{
		Use:   "spec",
		Short: "Inspect and manage the dashboard specification",
	}
	specGetCmd = &cobra.Command{
		Use:   "get",
		Short: "Print the current dashboard specification and its version",
		Run:   runSpecGet, // Defined in cmd_spec.go
	}
	specHistoryCmd = &cobra.Command{
		Use:   "history",
		Short: "List stored specification versions, newest first",
		Run:   runSpecHistory, // Defined in cmd_spec.go
	}
	specRollbackCmd = &cobra.Command{
		Use:   "rollback [version]",
		Short: "Restore an earlier specification version as a new version",
		Args:  cobra.ExactArgs(1),
		Run:   runSpecRollback, // Defined in cmd_spec.go
	}

	// --- Patch Lifecycle ---
	simulateCmd = &cobra.Command{
		Use:   "simulate [patch.json]",
		Short: "Dry-run a patch file against the current specification",
		Args:  cobra.ExactArgs(1),
		Run:   runSimulate, // Defined in cmd_patch.go
	}
	commitCmd = &cobra.Command{
		Use:   "commit [patch.json]",
		Short: "Validate a patch file and commit it as a new version",
		Args:  cobra.ExactArgs(1),
		Run:   runCommit, // Defined in cmd_patch.go
	}

	// --- Insights ---
	insightsCmd = &cobra.Command{
		Use:   "insights [dataset.json]",
		Short: "Run the insight rule engine on a metrics dataset file",
		Args:  cobra.ExactArgs(1),
		Run:   runInsights, // Defined in cmd_insights.go
	}

	// --- Proposals ---
	proposeCmd = &cobra.Command{
		Use:   "propose [request]",
		Short: "Ask the proposal engine to draft a patch from a natural-language request",
		Args:  cobra.MinimumNArgs(1),
		Run:   runPropose, // Defined in cmd_insights.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "",
		"Dashboard API base URL (default: $PULSE_API_URL or http://localhost:12310)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "",
		"Write a local audit log of CLI invocations to this directory")
	rootCmd.PersistentFlags().BoolVar(&rawOutput, "json", false,
		"Print raw JSON responses instead of formatted output")

	rootCmd.AddCommand(specCmd)
	specCmd.AddCommand(specGetCmd)
	specCmd.AddCommand(specHistoryCmd)
	specHistoryCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of versions to list")
	specCmd.AddCommand(specRollbackCmd)

	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().Int64Var(&baseVersion, "base", 0,
		"Version the patch was written against (default: current version)")

	rootCmd.AddCommand(commitCmd)
	commitCmd.Flags().Int64Var(&baseVersion, "base", 0,
		"Version the patch was written against (default: current version)")
	commitCmd.Flags().StringVar(&commitNote, "note", "", "Free-form note stored with the new version")

	rootCmd.AddCommand(insightsCmd)

	rootCmd.AddCommand(proposeCmd)
	proposeCmd.Flags().StringSliceVar(&fieldsFlag, "fields", nil,
		"Metric fields the proposal may reference (e.g. --fields cpl,cpa,leads)")
}
