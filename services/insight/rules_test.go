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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func changeParams(metric string, previous, current float64) Params {
	return Params{
		Rows:               dailyRows(metric, 10, 12, 11, 13),
		Aggregates:         map[string]float64{metric: current},
		PreviousAggregates: map[string]float64{metric: previous},
		DateRange:          DateRange{Start: "2026-08-01", End: "2026-08-04"},
	}
}

func cplRule(t *testing.T) Rule {
	t.Helper()
	for _, r := range Catalog() {
		if r.ID() == "cpl_change" {
			return r
		}
	}
	t.Fatal("cpl_change missing from catalog")
	return nil
}

func TestPercentChangeRuleFiresAboveThreshold(t *testing.T) {
	// 100 -> 121 is a 21% rise against a 20% threshold.
	insights := cplRule(t).Evaluate(changeParams("cpl", 100, 121))

	require.Len(t, insights, 1)
	in := insights[0]
	assert.Equal(t, "cpl_change", in.RuleID)
	assert.Equal(t, PriorityMedium, in.Priority)
	assert.InDelta(t, 21, in.Calculation.Output, 1e-9)
	assert.Equal(t, UnitPercent, in.Calculation.Unit)
	assert.Equal(t, 100.0, in.Calculation.Inputs["cpl_previous"])
	assert.Equal(t, 121.0, in.Calculation.Inputs["cpl_current"])
	assert.NotEmpty(t, in.Calculation.Formula)
}

func TestPercentChangeRuleThresholdIsStrict(t *testing.T) {
	// Exactly 20% must not fire.
	assert.Empty(t, cplRule(t).Evaluate(changeParams("cpl", 100, 120)))
}

func TestPercentChangeRulePriorityEscalation(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		priority Priority
	}{
		{"just over threshold is medium", 125, PriorityMedium},
		{"over 35 percent is high", 140, PriorityHigh},
		{"over 50 percent is critical", 160, PriorityCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insights := cplRule(t).Evaluate(changeParams("cpl", 100, tt.current))
			require.Len(t, insights, 1)
			assert.Equal(t, tt.priority, insights[0].Priority)
		})
	}
}

func TestPercentChangeRuleDecreaseUsesMagnitude(t *testing.T) {
	insights := cplRule(t).Evaluate(changeParams("cpl", 100, 60))

	require.Len(t, insights, 1)
	assert.Equal(t, PriorityHigh, insights[0].Priority)
	assert.InDelta(t, -40, insights[0].Calculation.Output, 1e-9)
	assert.Contains(t, insights[0].Title, "decreased")
}

func TestPercentChangeRuleZeroPrevious(t *testing.T) {
	// Growth from zero is pinned at 100%, which clears any threshold.
	insights := cplRule(t).Evaluate(changeParams("cpl", 0, 50))
	require.Len(t, insights, 1)
	assert.Equal(t, PriorityCritical, insights[0].Priority)
	assert.InDelta(t, 100, insights[0].Calculation.Output, 1e-9)

	// Zero to zero is a 0% change and stays quiet.
	assert.Empty(t, cplRule(t).Evaluate(changeParams("cpl", 0, 0)))
}

func TestPercentChangeRuleNeedsBothPeriods(t *testing.T) {
	p := changeParams("cpl", 100, 200)
	p.PreviousAggregates = nil
	assert.Empty(t, cplRule(t).Evaluate(p))

	p = changeParams("cpl", 100, 200)
	delete(p.PreviousAggregates, "cpl")
	assert.Empty(t, cplRule(t).Evaluate(p))
}

func TestFunnelBottleneckFirstWeakStage(t *testing.T) {
	rule := &funnelBottleneckRule{minSamples: 3}
	p := Params{
		Rows: dailyRows("leads", 10, 12, 11),
		FunnelStages: []FunnelStage{
			{Name: "visit", Conversion: 90},
			{Name: "signup", Conversion: 40},
			{Name: "purchase", Conversion: 10},
		},
	}

	insights := rule.Evaluate(p)

	require.Len(t, insights, 1, "only the first bottleneck is reported")
	in := insights[0]
	assert.Contains(t, in.Title, "signup")
	assert.Equal(t, PriorityHigh, in.Priority)
	assert.InDelta(t, 60, in.Calculation.Output, 1e-9)
}

func TestFunnelBottleneckSevereLossIsCritical(t *testing.T) {
	rule := &funnelBottleneckRule{minSamples: 3}
	p := Params{
		Rows:         dailyRows("leads", 10, 12, 11),
		FunnelStages: []FunnelStage{{Name: "signup", Conversion: 25}},
	}

	insights := rule.Evaluate(p)

	require.Len(t, insights, 1)
	assert.Equal(t, PriorityCritical, insights[0].Priority)
	assert.InDelta(t, 75, insights[0].Calculation.Output, 1e-9)
}

func TestFunnelBottleneckNormalizesFractions(t *testing.T) {
	rule := &funnelBottleneckRule{minSamples: 3}
	p := Params{
		Rows: dailyRows("leads", 10, 12, 11),
		FunnelStages: []FunnelStage{
			{Name: "visit", Conversion: 0.9},  // 90%, healthy
			{Name: "signup", Conversion: 0.4}, // 40%, bottleneck
		},
	}

	insights := rule.Evaluate(p)

	require.Len(t, insights, 1)
	assert.Contains(t, insights[0].Title, "signup")
	assert.InDelta(t, 40, insights[0].Calculation.Inputs["conversion_pct"], 1e-9)
}

func TestFunnelBottleneckQuietCases(t *testing.T) {
	rule := &funnelBottleneckRule{minSamples: 3}
	rows := dailyRows("leads", 10, 12, 11)

	// Healthy funnel.
	assert.Empty(t, rule.Evaluate(Params{
		Rows:         rows,
		FunnelStages: []FunnelStage{{Name: "visit", Conversion: 80}, {Name: "signup", Conversion: 55}},
	}))

	// A dead stage carries no signal.
	assert.Empty(t, rule.Evaluate(Params{
		Rows:         rows,
		FunnelStages: []FunnelStage{{Name: "visit", Conversion: 0}},
	}))

	// No funnel configured.
	assert.Empty(t, rule.Evaluate(Params{Rows: rows}))
}

func TestAnomalyRuleFlagsSingleSpike(t *testing.T) {
	rule := &anomalyRule{minSamples: 7}
	// Nine flat days plus one spike: mean 110, sd 30, spike z = 3.0.
	p := Params{Rows: dailyRows("leads",
		100, 100, 100, 100, 100, 100, 100, 100, 100, 200)}

	insights := rule.Evaluate(p)

	require.Len(t, insights, 1)
	in := insights[0]
	assert.Equal(t, "metric_anomaly", in.RuleID)
	assert.Equal(t, PriorityMedium, in.Priority)
	assert.InDelta(t, 3.0, in.Calculation.Output, 1e-9)
	assert.Equal(t, 200.0, in.Calculation.Inputs["value"])
	assert.Equal(t, UnitCount, in.Calculation.Unit)
}

func TestAnomalyRuleIgnoresQuietSeries(t *testing.T) {
	rule := &anomalyRule{minSamples: 7}

	// Small wiggles never leave the two-sigma band.
	p := Params{Rows: dailyRows("leads",
		100, 102, 98, 101, 99, 100, 103, 97, 101, 100)}
	assert.Empty(t, rule.Evaluate(p))

	// A perfectly flat series has zero variance and nothing to flag.
	p = Params{Rows: dailyRows("leads", 50, 50, 50, 50, 50, 50, 50)}
	assert.Empty(t, rule.Evaluate(p))
}

func TestAnomalyRuleTreatsManyOutliersAsBaselineShift(t *testing.T) {
	rule := &anomalyRule{minSamples: 7}
	values := make([]float64, 0, 23)
	for i := 0; i < 20; i++ {
		values = append(values, 100)
	}
	values = append(values, 1000, 1000, 1000)

	assert.Empty(t, rule.Evaluate(Params{Rows: dailyRows("leads", values...)}),
		"three or more outliers indicate a shifted baseline, not an anomaly")
}

func TestAnomalyRuleSkipsShortSeries(t *testing.T) {
	rule := &anomalyRule{minSamples: 7}
	p := Params{Rows: dailyRows("leads", 100, 100, 100, 100, 100, 500)}
	assert.Empty(t, rule.Evaluate(p))
}

func TestCatalogOrderIsStable(t *testing.T) {
	ids := make([]string, 0)
	for _, r := range Catalog() {
		ids = append(ids, r.ID())
	}
	assert.Equal(t, []string{
		"cpl_change",
		"cpa_change",
		"lead_volume_change",
		"funnel_bottleneck",
		"metric_anomaly",
	}, ids)
}
