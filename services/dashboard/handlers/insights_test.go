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
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianPulse/services/dashboard/datatypes"
	"github.com/AleutianAI/AleutianPulse/services/dashboard/middleware"
	"github.com/AleutianAI/AleutianPulse/services/insight"
)

func newInsightsRouter() *gin.Engine {
	engine := insight.NewEngine(slog.New(slog.NewTextHandler(io.Discard, nil)))
	router := gin.New()
	router.Use(middleware.RequestID())
	router.POST("/v1/insights", Insights(engine, insight.DefaultValidatorConfig()))
	return router
}

func insightRows(metric string, values ...float64) []insight.Row {
	rows := make([]insight.Row, len(values))
	for i, v := range values {
		rows[i] = insight.Row{
			"date": fmt.Sprintf("2026-08-%02d", i+1),
			metric: v,
		}
	}
	return rows
}

func TestInsights_FiresTrendRule(t *testing.T) {
	router := newInsightsRouter()

	w, envelope := doJSON(t, router, "POST", "/v1/insights", datatypes.InsightsRequest{
		Rows:               insightRows("leads", 10, 12, 11, 13),
		Aggregates:         map[string]float64{"cpl": 121},
		PreviousAggregates: map[string]float64{"cpl": 100},
		DateRange:          insight.DateRange{Start: "2026-08-01", End: "2026-08-04"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, envelope.OK)

	data := envelope.Data.(map[string]any)
	insights := data["insights"].([]any)
	require.Len(t, insights, 1)
	fired := insights[0].(map[string]any)
	assert.Equal(t, "cpl_change", fired["rule_id"])
	assert.Equal(t, "medium", fired["priority"])

	calc := fired["calculation"].(map[string]any)
	assert.InDelta(t, 21, calc["output"].(float64), 1e-9)
}

func TestInsights_QuietDatasetReturnsEmptyList(t *testing.T) {
	router := newInsightsRouter()

	w, envelope := doJSON(t, router, "POST", "/v1/insights", datatypes.InsightsRequest{
		Rows:               insightRows("leads", 10, 12, 11),
		Aggregates:         map[string]float64{"cpl": 105},
		PreviousAggregates: map[string]float64{"cpl": 100},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	data := envelope.Data.(map[string]any)
	assert.Empty(t, data["insights"])
	validation := data["validation"].(map[string]any)
	assert.Equal(t, true, validation["is_valid"])
}

func TestInsights_TooFewRowsIs422(t *testing.T) {
	router := newInsightsRouter()

	w, envelope := doJSON(t, router, "POST", "/v1/insights", datatypes.InsightsRequest{
		Rows:       insightRows("leads", 10, 12),
		Aggregates: map[string]float64{"cpl": 200},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, datatypes.CodeValidationError, envelope.Error.Code)

	details := envelope.Error.Details.(map[string]any)
	errs := details["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Equal(t, "INSUFFICIENT_DATA", errs[0].(map[string]any)["code"])
}

func TestInsights_MissingAggregatesIs400(t *testing.T) {
	router := newInsightsRouter()

	w, envelope := doJSON(t, router, "POST", "/v1/insights", gin.H{
		"rows": insightRows("leads", 1, 2, 3),
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, datatypes.CodeValidationError, envelope.Error.Code)
}
