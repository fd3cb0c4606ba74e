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
	"log/slog"
	"sort"
)

// =============================================================================
// Engine
// =============================================================================

// Engine evaluates the rule catalog against one analysis window.
//
// # Description
//
// The engine runs every registered rule in catalog order, collects the
// insights they emit, and returns them sorted by priority (critical
// first). Rules whose sample-size floor exceeds the available row count
// are skipped. Each rule runs inside a recover boundary: a panicking
// rule is logged and dropped, and the remaining rules still run.
//
// # Thread Safety
//
// Engine is immutable after construction and safe for concurrent use.
type Engine struct {
	rules  []Rule
	logger *slog.Logger
}

// NewEngine builds an engine over the default rule catalog.
func NewEngine(logger *slog.Logger) *Engine {
	return NewEngineWithRules(logger, Catalog())
}

// NewEngineWithRules builds an engine over an explicit rule set. Used by
// tests to inject misbehaving rules.
func NewEngineWithRules(logger *slog.Logger, rules []Rule) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{rules: rules, logger: logger}
}

// Run evaluates all rules and returns their insights ordered by priority.
// Ordering is stable: within one priority, catalog order is preserved.
func (e *Engine) Run(p Params) []Insight {
	insights := make([]Insight, 0, len(e.rules))
	for _, rule := range e.rules {
		if len(p.Rows) < rule.MinSamples() {
			e.logger.Debug("skipping rule: insufficient samples",
				"rule_id", rule.ID(),
				"rows", len(p.Rows),
				"min_samples", rule.MinSamples())
			continue
		}
		insights = append(insights, e.evaluate(rule, p)...)
	}

	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].Priority < insights[j].Priority
	})
	return insights
}

// evaluate runs one rule behind a recover boundary so a defective rule
// cannot take down the whole run.
func (e *Engine) evaluate(rule Rule, p Params) (out []Insight) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("insight rule panicked",
				"rule_id", rule.ID(),
				"category", rule.Category(),
				"panic", r)
			out = nil
		}
	}()
	return rule.Evaluate(p)
}
