// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/AleutianPulse/services/dashboard/handlers"
	"github.com/AleutianAI/AleutianPulse/services/dashboard/middleware"
	"github.com/AleutianAI/AleutianPulse/services/insight"
	"github.com/AleutianAI/AleutianPulse/services/proposal"
	"github.com/AleutianAI/AleutianPulse/services/simulation"
	"github.com/AleutianAI/AleutianPulse/services/specstore"
)

// Deps bundles everything the route table needs. ProposerBackend names
// the configured proposal backend for metrics labels.
type Deps struct {
	Store           *specstore.Store
	Simulator       *simulation.Simulator
	Engine          *insight.Engine
	ValidatorConfig insight.ValidatorConfig
	Proposer        proposal.Proposer
	ProposerBackend string
	RateLimiter     *middleware.RateLimiter
	EnableMetrics   bool
}

func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.HealthCheck)
	if deps.EnableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// API version 1 group
	v1 := router.Group("/v1")
	v1.Use(middleware.RequestID())
	if deps.RateLimiter != nil {
		v1.Use(deps.RateLimiter.Middleware())
	}
	{
		spec := v1.Group("/spec")
		{
			spec.GET("", handlers.GetSpec(deps.Store))
			spec.GET("/history", handlers.GetHistory(deps.Store))
			spec.POST("/simulate", handlers.Simulate(deps.Simulator))
			spec.POST("/commit", handlers.Commit(deps.Simulator))
			spec.POST("/rollback", handlers.Rollback(deps.Store))
			if deps.Proposer != nil {
				spec.POST("/propose", handlers.Propose(deps.Proposer, deps.Store, deps.ProposerBackend))
			}
		}

		v1.POST("/insights", handlers.Insights(deps.Engine, deps.ValidatorConfig))
	}
}
