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
	"fmt"
	"math"
	"sort"
	"strings"
)

// =============================================================================
// Rule Interface
// =============================================================================

// Rule is one declarative insight check.
//
// Rules are independent: each is invoked inside an isolated failure
// boundary by the engine, so a panic in one rule never prevents the
// others from running. Implementations must be pure functions of their
// Params and safe for concurrent use.
type Rule interface {
	// ID uniquely names the rule in results and logs.
	ID() string

	// Category groups the rule family (trend, funnel, anomaly).
	Category() string

	// MinSamples is the minimum current-period row count the rule needs.
	// The engine skips the rule below this floor.
	MinSamples() int

	// Evaluate returns zero or more insights. Returning nothing means the
	// rule simply did not fire; it is not an error.
	Evaluate(p Params) []Insight
}

// Catalog returns the fixed, ordered rule catalog. Result ordering for
// equal priorities follows this order.
func Catalog() []Rule {
	return []Rule{
		&percentChangeRule{
			id:         "cpl_change",
			metric:     "cpl",
			label:      "cost per lead",
			threshold:  20,
			minSamples: 3,
		},
		&percentChangeRule{
			id:         "cpa_change",
			metric:     "cpa",
			label:      "cost per acquisition",
			threshold:  25,
			minSamples: 3,
		},
		&percentChangeRule{
			id:         "lead_volume_change",
			metric:     "leads",
			label:      "lead volume",
			threshold:  30,
			minSamples: 3,
		},
		&funnelBottleneckRule{minSamples: 3},
		&anomalyRule{minSamples: 7},
	}
}

// =============================================================================
// Percent-Change Rules
// =============================================================================

// percentChangeRule compares one aggregate between the current and the
// previous period and fires when the absolute percent change strictly
// exceeds its threshold. Exactly hitting the threshold does not fire.
type percentChangeRule struct {
	id         string
	metric     string
	label      string
	threshold  float64
	minSamples int
}

func (r *percentChangeRule) ID() string       { return r.id }
func (r *percentChangeRule) Category() string { return "trend" }
func (r *percentChangeRule) MinSamples() int  { return r.minSamples }

func (r *percentChangeRule) Evaluate(p Params) []Insight {
	if p.PreviousAggregates == nil {
		return nil
	}
	current, okCur := p.Aggregates[r.metric]
	previous, okPrev := p.PreviousAggregates[r.metric]
	if !okCur || !okPrev {
		return nil
	}

	change := percentChange(current, previous)
	if math.Abs(change) <= r.threshold {
		return nil
	}

	direction := "increased"
	if change < 0 {
		direction = "decreased"
	}

	return []Insight{{
		RuleID:   r.id,
		Type:     "trend",
		Priority: changePriority(math.Abs(change)),
		Title:    fmt.Sprintf("%s %s by %.1f%%", capitalize(r.label), direction, math.Abs(change)),
		Description: fmt.Sprintf(
			"%s moved from %.2f to %.2f between the previous period and %s..%s, a %.1f%% change against a %.0f%% alert threshold.",
			capitalize(r.label), previous, current, p.DateRange.Start, p.DateRange.End,
			change, r.threshold),
		Calculation: Calculation{
			Formula: fmt.Sprintf("(%s_current - %s_previous) / |%s_previous| * 100",
				r.metric, r.metric, r.metric),
			Inputs: map[string]float64{
				r.metric + "_current":  current,
				r.metric + "_previous": previous,
			},
			Output: change,
			Unit:   UnitPercent,
		},
		Confidence: sampleConfidence(len(p.Rows)),
	}}
}

// changePriority escalates with magnitude: >50% critical, >35% high,
// otherwise medium.
func changePriority(absChange float64) Priority {
	switch {
	case absChange > 50:
		return PriorityCritical
	case absChange > 35:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// =============================================================================
// Funnel Bottleneck Rule
// =============================================================================

// funnelBottleneckRule scans adjacent funnel stages in order and fires on
// the first stage converting below 50%. A stage at exactly 0% is skipped:
// with literally no samples there is nothing to diagnose.
type funnelBottleneckRule struct {
	minSamples int
}

func (r *funnelBottleneckRule) ID() string       { return "funnel_bottleneck" }
func (r *funnelBottleneckRule) Category() string { return "funnel" }
func (r *funnelBottleneckRule) MinSamples() int  { return r.minSamples }

func (r *funnelBottleneckRule) Evaluate(p Params) []Insight {
	for _, stage := range p.FunnelStages {
		conversion := normalizeRate(stage.Conversion)
		if conversion <= 0 || conversion >= 50 {
			continue
		}
		loss := 100 - conversion

		priority := PriorityHigh
		if loss > 70 {
			priority = PriorityCritical
		}

		return []Insight{{
			RuleID:   r.ID(),
			Type:     "funnel",
			Priority: priority,
			Title:    fmt.Sprintf("Funnel bottleneck at %q", stage.Name),
			Description: fmt.Sprintf(
				"Stage %q converts only %.1f%% of entrants; %.1f%% are lost at this step.",
				stage.Name, conversion, loss),
			Calculation: Calculation{
				Formula: "100 - conversion_pct",
				Inputs: map[string]float64{
					"conversion_pct": conversion,
				},
				Output: loss,
				Unit:   UnitPercent,
			},
			Confidence: sampleConfidence(len(p.Rows)),
		}}
	}
	return nil
}

// normalizeRate maps a conversion value onto a 0-100 scale. Values at or
// below 1 are treated as fractions and multiplied by 100.
func normalizeRate(v float64) float64 {
	if v <= 1 {
		return v * 100
	}
	return v
}

// =============================================================================
// Anomaly Rule
// =============================================================================

// anomalyRule flags daily values lying more than two standard deviations
// from their series mean. It fires only when the outlier count is one or
// two: three or more points beyond the band indicate a shifted baseline,
// which is a trend, not an anomaly.
type anomalyRule struct {
	minSamples int
}

func (r *anomalyRule) ID() string       { return "metric_anomaly" }
func (r *anomalyRule) Category() string { return "anomaly" }
func (r *anomalyRule) MinSamples() int  { return r.minSamples }

func (r *anomalyRule) Evaluate(p Params) []Insight {
	var insights []Insight
	for _, metric := range candidateMetrics(p.Rows) {
		series := seriesFor(p.Rows, metric)
		if len(series) < r.minSamples {
			continue
		}
		m := mean(series)
		sd := stddev(series)
		if sd == 0 {
			continue
		}

		var outliers []int
		for i, v := range series {
			if math.Abs(zScore(v, m, sd)) > 2 {
				outliers = append(outliers, i)
			}
		}
		if len(outliers) == 0 || len(outliers) > 2 {
			continue
		}

		// Report the most extreme point.
		extreme := outliers[0]
		for _, i := range outliers {
			if math.Abs(zScore(series[i], m, sd)) > math.Abs(zScore(series[extreme], m, sd)) {
				extreme = i
			}
		}
		z := zScore(series[extreme], m, sd)

		priority := PriorityMedium
		if math.Abs(z) > 3 {
			priority = PriorityHigh
		}

		insights = append(insights, Insight{
			RuleID:   r.ID(),
			Type:     "anomaly",
			Priority: priority,
			Title:    fmt.Sprintf("Unusual %s value detected", metric),
			Description: fmt.Sprintf(
				"%s hit %.2f on day %d of the period, %.1f standard deviations from its mean of %.2f (%d of %d days flagged).",
				metric, series[extreme], extreme+1, z, m, len(outliers), len(series)),
			Calculation: Calculation{
				Formula: "(value - mean) / stddev",
				Inputs: map[string]float64{
					"value":  series[extreme],
					"mean":   m,
					"stddev": sd,
				},
				Output: z,
				Unit:   metricUnit(metric),
			},
			Confidence: sampleConfidence(len(series)),
		})
	}
	return insights
}

// candidateMetrics lists the numeric fields present in the rows, sorted
// for deterministic evaluation order. Date-like fields are excluded.
func candidateMetrics(rows []Row) []string {
	seen := map[string]bool{}
	for _, row := range rows {
		for field := range row {
			if field == "date" || seen[field] {
				continue
			}
			if _, ok := numericField(row, field); ok {
				seen[field] = true
			}
		}
	}
	metrics := make([]string, 0, len(seen))
	for field := range seen {
		metrics = append(metrics, field)
	}
	sort.Strings(metrics)
	return metrics
}

// seriesFor extracts one metric's daily values in row order, skipping
// rows where the field is absent.
func seriesFor(rows []Row, metric string) []float64 {
	series := make([]float64, 0, len(rows))
	for _, row := range rows {
		if v, ok := numericField(row, metric); ok {
			series = append(series, v)
		}
	}
	return series
}

// metricUnit tags the anomaly output by the underlying metric's nature.
func metricUnit(metric string) Unit {
	switch {
	case isCurrencyLike(metric):
		return UnitCurrency
	case isRateLike(metric):
		return UnitRate
	default:
		return UnitCount
	}
}

// =============================================================================
// Shared Helpers
// =============================================================================

// sampleConfidence grows with the number of observations backing a
// finding, from 0.5 on the minimum viable sample toward 1.0 at two weeks
// of daily data.
func sampleConfidence(samples int) float64 {
	c := 0.5 + float64(samples)/28.0
	if c > 1 {
		return 1
	}
	return c
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
