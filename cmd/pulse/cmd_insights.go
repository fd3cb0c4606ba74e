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
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type insightResult struct {
	RuleID      string `json:"rule_id"`
	Type        string `json:"type"`
	Priority    string `json:"priority"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Calculation struct {
		Formula string             `json:"formula"`
		Inputs  map[string]float64 `json:"inputs"`
		Output  float64            `json:"output"`
		Unit    string             `json:"unit"`
	} `json:"calculation"`
	Confidence float64 `json:"confidence"`
}

type validationFinding struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
}

func runInsights(cmd *cobra.Command, args []string) {
	// The dataset file uses the same shape as the insights endpoint:
	// rows, aggregates, and optionally previous_aggregates, funnel_stages
	// and date_range.
	var dataset map[string]any
	readJSONFile(args[0], &dataset)

	env, status := apiPost("/v1/insights", dataset)
	if !env.OK {
		if status == 422 && env.Error != nil {
			fmt.Fprintf(os.Stderr, "Dataset rejected: %s\n", env.Error.Message)
			var validation struct {
				Errors   []validationFinding `json:"errors"`
				Warnings []validationFinding `json:"warnings"`
			}
			if err := decodeJSON(env.Error.Details, &validation); err == nil {
				renderFindings(validation.Errors, validation.Warnings)
			}
			os.Exit(1)
		}
		failOnAPIError(env)
	}
	if rawOutput {
		printData(env)
		return
	}

	var payload struct {
		Validation struct {
			Warnings []validationFinding `json:"warnings"`
		} `json:"validation"`
		Insights []insightResult `json:"insights"`
	}
	decodeData(env, &payload)
	renderFindings(nil, payload.Validation.Warnings)
	if len(payload.Insights) == 0 {
		fmt.Println("No insights fired. Metrics look stable.")
		return
	}
	for _, in := range payload.Insights {
		fmt.Printf("[%s] %s (%s)\n", strings.ToUpper(in.Priority), in.Title, in.RuleID)
		fmt.Printf("  %s\n", in.Description)
		fmt.Printf("  %s = %.2f %s (confidence %.2f)\n",
			in.Calculation.Formula, in.Calculation.Output, in.Calculation.Unit, in.Confidence)
	}
}

func runPropose(cmd *cobra.Command, args []string) {
	request := strings.Join(args, " ")
	payload := map[string]any{"request": request}
	if len(fieldsFlag) > 0 {
		payload["available_fields"] = fieldsFlag
	}

	env, _ := apiPost("/v1/spec/propose", payload)
	if !env.OK {
		failOnAPIError(env)
	}
	if rawOutput {
		printData(env)
		return
	}

	var result struct {
		BaseVersion int64 `json:"base_version"`
		Proposal    struct {
			Operations []map[string]any `json:"operations"`
			Summary    string           `json:"summary"`
			Confidence float64          `json:"confidence"`
		} `json:"proposal"`
	}
	decodeData(env, &result)
	fmt.Printf("Proposal against version %d (confidence %.2f): %s\n",
		result.BaseVersion, result.Proposal.Confidence, result.Proposal.Summary)
	for _, op := range result.Proposal.Operations {
		fmt.Printf("  %v %v\n", op["op"], op["path"])
	}
	fmt.Println("Review the operations, then apply them with 'pulse simulate' and 'pulse commit'.")
}

func renderFindings(errors, warnings []validationFinding) {
	for _, f := range errors {
		fmt.Fprintf(os.Stderr, "  %s [%s] %s: %s\n", f.Severity, f.Code, f.Field, f.Message)
	}
	for _, f := range warnings {
		fmt.Printf("  warning [%s] %s: %s\n", f.Code, f.Field, f.Message)
	}
}
