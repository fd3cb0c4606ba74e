// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the HTTP handlers of the dashboard service.
//
// Handlers are factory functions taking their dependencies and returning
// a gin.HandlerFunc, so routes.SetupRoutes can wire them explicitly and
// tests can construct them with in-memory dependencies.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianPulse/services/dashboard/datatypes"
	"github.com/AleutianAI/AleutianPulse/services/dashboard/middleware"
	"github.com/AleutianAI/AleutianPulse/services/dashboard/observability"
)

// respond writes a success envelope.
func respond(c *gin.Context, status int, data any) {
	c.JSON(status, datatypes.Envelope{
		OK:      true,
		TraceID: middleware.GetRequestID(c),
		Data:    data,
	})
}

// respondError writes a failure envelope with a stable error code.
func respondError(c *gin.Context, status int, code, message string, details any) {
	c.JSON(status, datatypes.Envelope{
		OK:      false,
		TraceID: middleware.GetRequestID(c),
		Error: &datatypes.ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// countRequest records the request counter when metrics are initialized.
// Metrics are optional in tests.
func countRequest(endpoint, status string) {
	if m := observability.DefaultMetrics; m != nil {
		m.RequestsTotal.WithLabelValues(endpoint, status).Inc()
	}
}
