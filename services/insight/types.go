// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package insight derives explainable findings from aggregated business
// metrics.
//
// Two components live here. The data-integrity validator (validator.go)
// runs structural and numeric sanity checks over a dataset and its
// aggregates, and gates whether the rule engine may run at all. The rule
// engine (engine.go, rules.go) evaluates a fixed catalog of declarative
// rules against current/previous aggregates and raw daily rows, producing
// prioritized findings, each carrying an auditable calculation trace.
//
// Results are ephemeral: computed per request, never the system of record.
package insight

import "fmt"

// =============================================================================
// Priorities and Units
// =============================================================================

// Priority ranks how urgent a finding is. Lower values sort first.
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityMedium
	PriorityLow
)

// String returns the wire name of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// MarshalJSON emits the priority by name.
func (p Priority) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// Unit tags what kind of quantity a calculation output is.
type Unit string

const (
	UnitCurrency Unit = "currency"
	UnitPercent  Unit = "percent"
	UnitCount    Unit = "count"
	UnitRate     Unit = "rate"
)

// =============================================================================
// Findings
// =============================================================================

// Calculation is the audit artifact attached to every fired rule: the
// literal formula, the named numeric inputs, the output, and its unit.
// This is what a user inspects to decide whether to trust the insight.
type Calculation struct {
	Formula string             `json:"formula"`
	Inputs  map[string]float64 `json:"inputs"`
	Output  float64            `json:"output"`
	Unit    Unit               `json:"unit"`
}

// Insight is one fired finding.
type Insight struct {
	RuleID      string      `json:"rule_id"`
	Type        string      `json:"type"`
	Priority    Priority    `json:"priority"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Calculation Calculation `json:"calculation"`
	Confidence  float64     `json:"confidence"`
}

// =============================================================================
// Inputs
// =============================================================================

// Row is one raw daily observation: a date-like field plus numeric metrics.
type Row map[string]any

// FunnelStage is one step of the conversion funnel with its conversion
// rate into the next stage. Rates at or below 1 are treated as fractions;
// larger values as percentages.
type FunnelStage struct {
	Name       string  `json:"name"`
	Conversion float64 `json:"conversion"`
}

// DateRange bounds the reporting window of the current period.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Params carries everything the rule engine evaluates against.
// PreviousRows and PreviousAggregates are optional; rules that need a
// prior period skip themselves when it is absent.
type Params struct {
	Rows               []Row              `json:"rows"`
	PreviousRows       []Row              `json:"previous_rows,omitempty"`
	Aggregates         map[string]float64 `json:"aggregates"`
	PreviousAggregates map[string]float64 `json:"previous_aggregates,omitempty"`
	FunnelStages       []FunnelStage      `json:"funnel_stages,omitempty"`
	DateRange          DateRange          `json:"date_range"`
}
