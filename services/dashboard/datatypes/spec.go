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

// Typed views of the dashboard entities. The engine itself patches a
// generic document tree; these types exist for clients and for seeding,
// not as the storage format.

// KPI is one headline metric card.
type KPI struct {
	Title  string `json:"title"`
	Metric string `json:"metric"`
	Format string `json:"format,omitempty"`
}

// Chart is one visualization, bound to one or more metric fields.
type Chart struct {
	Title   string   `json:"title"`
	Kind    string   `json:"kind"`
	Metrics []string `json:"metrics"`
}

// Tab is one page of the dashboard.
type Tab struct {
	Title  string   `json:"title"`
	Charts []string `json:"charts,omitempty"`
}

// FunnelStage is one step of the configured conversion funnel.
type FunnelStage struct {
	Name  string `json:"name"`
	Event string `json:"event"`
}

// Filter is one user-adjustable report filter.
type Filter struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// DetailsTabTitle is the reserved drill-down tab every dashboard must
// keep. The path policy protects it from removal.
const DetailsTabTitle = "Details"

// DefaultDocument is the version-1 document a fresh store is seeded
// with: a minimal acquisition dashboard with the protected Details tab.
func DefaultDocument() map[string]any {
	return map[string]any{
		"title":       "Marketing Overview",
		"description": "Acquisition performance at a glance.",
		"kpis": []any{
			map[string]any{"title": "Spend", "metric": "spend", "format": "currency"},
			map[string]any{"title": "Leads", "metric": "leads", "format": "count"},
			map[string]any{"title": "CPL", "metric": "cpl", "format": "currency"},
		},
		"charts": []any{
			map[string]any{
				"title":   "Spend by day",
				"kind":    "line",
				"metrics": []any{"spend"},
			},
		},
		"tabs": []any{
			map[string]any{"title": "Overview"},
			map[string]any{"title": DetailsTabTitle},
		},
		"funnel_stages": []any{
			map[string]any{"name": "Visit", "event": "page_view"},
			map[string]any{"name": "Lead", "event": "form_submit"},
			map[string]any{"name": "Customer", "event": "purchase"},
		},
		"filters": []any{},
		"layout":  map[string]any{"columns": 12.0},
		"metadata": map[string]any{
			"seeded": true,
		},
	}
}
