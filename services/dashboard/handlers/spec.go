// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianPulse/services/dashboard/datatypes"
	"github.com/AleutianAI/AleutianPulse/services/dashboard/observability"
	"github.com/AleutianAI/AleutianPulse/services/simulation"
	"github.com/AleutianAI/AleutianPulse/services/specstore"
)

// GetSpec returns the current dashboard specification with its version.
func GetSpec(store *specstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		record, err := store.Current(c.Request.Context())
		if err != nil {
			slog.Error("failed to load current spec", "error", err)
			respondError(c, http.StatusInternalServerError,
				datatypes.CodeInternalError, "failed to load current spec", nil)
			return
		}
		respond(c, http.StatusOK, record)
	}
}

// GetHistory lists versions newest first. ?limit=N caps the result;
// omitted or zero returns everything.
func GetHistory(store *specstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				respondError(c, http.StatusBadRequest,
					datatypes.CodeValidationError, "limit must be a non-negative integer", nil)
				return
			}
			limit = parsed
		}

		records, err := store.History(c.Request.Context(), limit)
		if err != nil {
			slog.Error("failed to load spec history", "error", err)
			respondError(c, http.StatusInternalServerError,
				datatypes.CodeInternalError, "failed to load spec history", nil)
			return
		}
		respond(c, http.StatusOK, gin.H{"versions": records})
	}
}

// Simulate dry-runs a patch. The report is returned whether or not the
// patch is viable; only transport-level problems are errors.
func Simulate(sim *simulation.Simulator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.SimulateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			countRequest("simulate", "error")
			respondError(c, http.StatusBadRequest,
				datatypes.CodeValidationError, err.Error(), nil)
			return
		}

		start := time.Now()
		report, err := sim.Simulate(c.Request.Context(), req.BaseVersion, req.Operations)
		if err != nil {
			observeSimulation(start, simResultOf(nil, err))
			handleSimulateError(c, "simulate", err)
			return
		}

		observeSimulation(start, simResultOf(report, nil))
		countPolicyViolations(report)
		countRequest("simulate", "success")
		respond(c, http.StatusOK, report)
	}
}

// Commit re-simulates and persists a clean patch as the next version.
// An unviable patch is a 422 carrying the full report.
func Commit(sim *simulation.Simulator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.CommitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			countRequest("commit", "error")
			respondError(c, http.StatusBadRequest,
				datatypes.CodeValidationError, err.Error(), nil)
			return
		}

		version, report, err := sim.Commit(c.Request.Context(), req.BaseVersion, req.Operations, req.Note)
		if err != nil {
			handleSimulateError(c, "commit", err)
			return
		}

		if !report.Valid {
			countPolicyViolations(report)
			countRequest("commit", "error")
			respondError(c, http.StatusUnprocessableEntity,
				reportErrorCode(report), "patch cannot be committed", report)
			return
		}

		if m := observability.DefaultMetrics; m != nil {
			for _, outcome := range report.Outcomes {
				m.PatchOperationsTotal.WithLabelValues(string(outcome.Op)).Inc()
			}
		}
		countRequest("commit", "success")
		respond(c, http.StatusOK, gin.H{"version": version, "report": report})
	}
}

// Rollback restores an earlier version as a new head version.
func Rollback(store *specstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.RollbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			countRequest("rollback", "error")
			respondError(c, http.StatusBadRequest,
				datatypes.CodeValidationError, err.Error(), nil)
			return
		}

		version, err := store.Rollback(c.Request.Context(), req.TargetVersion)
		if errors.Is(err, specstore.ErrNotFound) {
			countRequest("rollback", "error")
			respondError(c, http.StatusNotFound,
				datatypes.CodeNotFound, "target version does not exist", nil)
			return
		}
		if err != nil {
			slog.Error("rollback failed", "target_version", req.TargetVersion, "error", err)
			countRequest("rollback", "error")
			respondError(c, http.StatusInternalServerError,
				datatypes.CodeInternalError, "rollback failed", nil)
			return
		}

		countRequest("rollback", "success")
		respond(c, http.StatusOK, gin.H{
			"version":          version,
			"restored_version": req.TargetVersion,
		})
	}
}

// handleSimulateError maps pipeline errors onto the API taxonomy.
func handleSimulateError(c *gin.Context, endpoint string, err error) {
	countRequest(endpoint, "error")

	if conflict, ok := specstore.IsConflict(err); ok {
		if m := observability.DefaultMetrics; m != nil {
			m.VersionConflictsTotal.Inc()
		}
		respondError(c, http.StatusConflict,
			datatypes.CodeVersionConflict, "base version is stale", gin.H{
				"expected_version": conflict.Expected,
				"current_version":  conflict.Current,
			})
		return
	}

	slog.Error("patch pipeline failed", "endpoint", endpoint, "error", err)
	respondError(c, http.StatusInternalServerError,
		datatypes.CodeInternalError, "patch pipeline failed", nil)
}

// reportErrorCode picks the envelope code for an unviable patch: the
// first policy violation's code when there is one, VALIDATION_ERROR for
// structural failures.
func reportErrorCode(report *simulation.Report) string {
	if len(report.Violations) > 0 {
		return report.Violations[0].Code
	}
	return datatypes.CodeValidationError
}

func countPolicyViolations(report *simulation.Report) {
	m := observability.DefaultMetrics
	if m == nil {
		return
	}
	for _, v := range report.Violations {
		m.PolicyViolationsTotal.WithLabelValues(v.Code).Inc()
	}
}

func simResultOf(report *simulation.Report, err error) string {
	switch {
	case err == nil && report != nil && report.Valid:
		return "valid"
	case err == nil:
		return "invalid"
	default:
		if _, ok := specstore.IsConflict(err); ok {
			return "conflict"
		}
		return "error"
	}
}

func observeSimulation(start time.Time, result string) {
	if m := observability.DefaultMetrics; m != nil {
		m.SimulationDurationSeconds.WithLabelValues(result).
			Observe(time.Since(start).Seconds())
	}
}
