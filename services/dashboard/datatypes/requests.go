// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"github.com/AleutianAI/AleutianPulse/services/insight"
	"github.com/AleutianAI/AleutianPulse/services/patch"
)

// SimulateRequest dry-runs a patch against a pinned base version.
type SimulateRequest struct {
	BaseVersion int64             `json:"base_version" binding:"required,min=1"`
	Operations  []patch.Operation `json:"operations" binding:"required,min=1,max=64"`
}

// CommitRequest applies a patch for real. Note is an optional free-text
// annotation stored on the new version.
type CommitRequest struct {
	BaseVersion int64             `json:"base_version" binding:"required,min=1"`
	Operations  []patch.Operation `json:"operations" binding:"required,min=1,max=64"`
	Note        string            `json:"note" binding:"max=500"`
}

// RollbackRequest restores an earlier version's document as a new head
// version. History is append-only; nothing is erased.
type RollbackRequest struct {
	TargetVersion int64 `json:"target_version" binding:"required,min=1"`
}

// InsightsRequest carries an analysis window: raw daily rows plus the
// precomputed aggregates the rules compare.
type InsightsRequest struct {
	Rows               []insight.Row         `json:"rows" binding:"required"`
	PreviousRows       []insight.Row         `json:"previous_rows"`
	Aggregates         map[string]float64    `json:"aggregates" binding:"required"`
	PreviousAggregates map[string]float64    `json:"previous_aggregates"`
	FunnelStages       []insight.FunnelStage `json:"funnel_stages"`
	DateRange          insight.DateRange     `json:"date_range"`
}

// Params converts the request into the engine's input form.
func (r InsightsRequest) Params() insight.Params {
	return insight.Params{
		Rows:               r.Rows,
		PreviousRows:       r.PreviousRows,
		Aggregates:         r.Aggregates,
		PreviousAggregates: r.PreviousAggregates,
		FunnelStages:       r.FunnelStages,
		DateRange:          r.DateRange,
	}
}

// ProposeRequest asks the configured proposer to draft a patch from a
// natural-language instruction.
type ProposeRequest struct {
	Request         string   `json:"request" binding:"required,max=2000"`
	AvailableFields []string `json:"available_fields" binding:"max=64"`
}
