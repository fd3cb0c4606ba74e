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
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianPulse/services/dashboard/datatypes"
	"github.com/AleutianAI/AleutianPulse/services/dashboard/observability"
	"github.com/AleutianAI/AleutianPulse/services/insight"
)

// Insights validates the submitted dataset and, when it passes, runs the
// rule engine over it.
//
// A dataset failing integrity checks gets 422 with the validation result;
// the engine never sees bad data. A passing dataset always returns 200,
// even when zero rules fire.
func Insights(engine *insight.Engine, validatorCfg insight.ValidatorConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.InsightsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			countRequest("insights", "error")
			respondError(c, http.StatusBadRequest,
				datatypes.CodeValidationError, err.Error(), nil)
			return
		}

		validation := insight.Validate(req.Rows, req.Aggregates, validatorCfg)
		if !validation.IsValid {
			countRequest("insights", "error")
			respondError(c, http.StatusUnprocessableEntity,
				datatypes.CodeValidationError, "dataset failed integrity checks", validation)
			return
		}

		insights := engine.Run(req.Params())

		if m := observability.DefaultMetrics; m != nil {
			for _, in := range insights {
				m.InsightRulesFiredTotal.
					WithLabelValues(in.RuleID, in.Priority.String()).Inc()
			}
		}

		countRequest("insights", "success")
		respond(c, http.StatusOK, gin.H{
			"validation": validation,
			"insights":   insights,
		})
	}
}
