// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the dashboard
// service.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "pulse"

const dashboardSubsystem = "dashboard"

// DashboardMetrics holds all Prometheus metrics for the patch and
// insight pipeline. Initialize once at startup via InitMetrics().
type DashboardMetrics struct {
	// RequestsTotal counts API requests by endpoint and status.
	// Labels: endpoint (simulate, commit, rollback, insights, propose), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// PatchOperationsTotal counts committed patch operations by kind.
	// Labels: op (add, remove, replace, move, copy, test)
	PatchOperationsTotal *prometheus.CounterVec

	// VersionConflictsTotal counts compare-and-swap rejections.
	VersionConflictsTotal prometheus.Counter

	// PolicyViolationsTotal counts policy rejections by violation code.
	// Labels: code
	PolicyViolationsTotal *prometheus.CounterVec

	// InsightRulesFiredTotal counts fired insight rules.
	// Labels: rule_id, priority
	InsightRulesFiredTotal *prometheus.CounterVec

	// SimulationDurationSeconds measures the simulate pipeline latency.
	// Labels: result (valid, invalid, conflict, error)
	SimulationDurationSeconds *prometheus.HistogramVec

	// ProposalsTotal counts proposal attempts by backend and outcome.
	// Labels: backend (openai, static), status (success, parse_error, error)
	ProposalsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance of DashboardMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *DashboardMetrics

// InitMetrics creates and registers all Prometheus metrics. Call once at
// application startup; a second call panics on duplicate registration.
func InitMetrics() *DashboardMetrics {
	DefaultMetrics = &DashboardMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dashboardSubsystem,
				Name:      "requests_total",
				Help:      "Total API requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		PatchOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dashboardSubsystem,
				Name:      "patch_operations_total",
				Help:      "Total committed patch operations by kind",
			},
			[]string{"op"},
		),

		VersionConflictsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dashboardSubsystem,
				Name:      "version_conflicts_total",
				Help:      "Total commits rejected by the compare-and-swap check",
			},
		),

		PolicyViolationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dashboardSubsystem,
				Name:      "policy_violations_total",
				Help:      "Total patch operations rejected by the path policy, by code",
			},
			[]string{"code"},
		),

		InsightRulesFiredTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dashboardSubsystem,
				Name:      "insight_rules_fired_total",
				Help:      "Total insight rule firings by rule and priority",
			},
			[]string{"rule_id", "priority"},
		),

		SimulationDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: dashboardSubsystem,
				Name:      "simulation_duration_seconds",
				Help:      "Simulation pipeline latency by result",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"result"},
		),

		ProposalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dashboardSubsystem,
				Name:      "proposals_total",
				Help:      "Total proposal attempts by backend and outcome",
			},
			[]string{"backend", "status"},
		),
	}
	return DefaultMetrics
}
