// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package insight

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubRule emits fixed insights, optionally panicking, and records
// whether it was evaluated.
type stubRule struct {
	id         string
	minSamples int
	insights   []Insight
	panics     bool
	evaluated  bool
}

func (s *stubRule) ID() string       { return s.id }
func (s *stubRule) Category() string { return "stub" }
func (s *stubRule) MinSamples() int  { return s.minSamples }

func (s *stubRule) Evaluate(Params) []Insight {
	s.evaluated = true
	if s.panics {
		panic("rule blew up")
	}
	return s.insights
}

func TestEngineRunsFullCatalog(t *testing.T) {
	engine := NewEngine(quietLogger())
	p := changeParams("cpl", 100, 160)
	p.Aggregates["leads"] = 100
	p.PreviousAggregates["leads"] = 60 // +66.7%, fires
	p.FunnelStages = []FunnelStage{{Name: "signup", Conversion: 40}}

	insights := engine.Run(p)

	require.Len(t, insights, 3)
	// Priority ascending: two critical trend findings, then the funnel.
	assert.Equal(t, "cpl_change", insights[0].RuleID)
	assert.Equal(t, PriorityCritical, insights[0].Priority)
	assert.Equal(t, "lead_volume_change", insights[1].RuleID)
	assert.Equal(t, PriorityCritical, insights[1].Priority)
	assert.Equal(t, "funnel_bottleneck", insights[2].RuleID)
	assert.Equal(t, PriorityHigh, insights[2].Priority)
}

func TestEngineSkipsRulesBelowSampleFloor(t *testing.T) {
	hungry := &stubRule{id: "needs-a-month", minSamples: 30,
		insights: []Insight{{RuleID: "needs-a-month"}}}
	modest := &stubRule{id: "needs-three", minSamples: 3,
		insights: []Insight{{RuleID: "needs-three"}}}
	engine := NewEngineWithRules(quietLogger(), []Rule{hungry, modest})

	insights := engine.Run(Params{Rows: dailyRows("leads", 1, 2, 3)})

	require.Len(t, insights, 1)
	assert.Equal(t, "needs-three", insights[0].RuleID)
	assert.False(t, hungry.evaluated)
	assert.True(t, modest.evaluated)
}

func TestEngineIsolatesPanickingRule(t *testing.T) {
	bomb := &stubRule{id: "bomb", panics: true}
	survivor := &stubRule{id: "survivor",
		insights: []Insight{{RuleID: "survivor", Priority: PriorityMedium}}}
	engine := NewEngineWithRules(quietLogger(), []Rule{bomb, survivor})

	var insights []Insight
	require.NotPanics(t, func() {
		insights = engine.Run(Params{Rows: dailyRows("leads", 1, 2, 3)})
	})

	require.Len(t, insights, 1)
	assert.Equal(t, "survivor", insights[0].RuleID)
	assert.True(t, survivor.evaluated, "rules after the panic still run")
}

func TestEngineSortIsStableWithinPriority(t *testing.T) {
	first := &stubRule{id: "first",
		insights: []Insight{{RuleID: "first", Priority: PriorityMedium}}}
	urgent := &stubRule{id: "urgent",
		insights: []Insight{{RuleID: "urgent", Priority: PriorityCritical}}}
	second := &stubRule{id: "second",
		insights: []Insight{{RuleID: "second", Priority: PriorityMedium}}}
	engine := NewEngineWithRules(quietLogger(), []Rule{first, urgent, second})

	insights := engine.Run(Params{Rows: dailyRows("leads", 1, 2, 3)})

	require.Len(t, insights, 3)
	assert.Equal(t, "urgent", insights[0].RuleID)
	assert.Equal(t, "first", insights[1].RuleID, "catalog order holds within one priority")
	assert.Equal(t, "second", insights[2].RuleID)
}

func TestEngineEmptyParams(t *testing.T) {
	engine := NewEngine(quietLogger())
	assert.Empty(t, engine.Run(Params{}))
}
