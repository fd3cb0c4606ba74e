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

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianPulse/pkg/validation"
	"github.com/AleutianAI/AleutianPulse/services/dashboard/datatypes"
	"github.com/AleutianAI/AleutianPulse/services/dashboard/observability"
	"github.com/AleutianAI/AleutianPulse/services/proposal"
	"github.com/AleutianAI/AleutianPulse/services/specstore"
)

// Propose drafts a patch from a natural-language request.
//
// The response carries the proposal and the base version it was drafted
// against; nothing is applied. The client reviews and submits it through
// simulate/commit like any other patch, so policy enforcement is
// identical for model-written and hand-written operations.
func Propose(proposer proposal.Proposer, store *specstore.Store, backend string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ProposeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			countRequest("propose", "error")
			respondError(c, http.StatusBadRequest,
				datatypes.CodeValidationError, err.Error(), nil)
			return
		}

		// Field names end up inside the proposer prompt, so reject anything
		// that is not a plain metric identifier.
		if err := validation.ValidateFields(req.AvailableFields); err != nil {
			countRequest("propose", "error")
			respondError(c, http.StatusBadRequest,
				datatypes.CodeValidationError, err.Error(), nil)
			return
		}

		current, err := store.Current(c.Request.Context())
		if err != nil {
			slog.Error("failed to load current spec for proposal", "error", err)
			countRequest("propose", "error")
			respondError(c, http.StatusInternalServerError,
				datatypes.CodeInternalError, "failed to load current spec", nil)
			return
		}

		p, err := proposer.Propose(c.Request.Context(), proposal.Request{
			CurrentDocument: current.Document,
			AvailableFields: req.AvailableFields,
			UserRequest:     req.Request,
		})
		if err != nil {
			countRequest("propose", "error")
			if errors.Is(err, proposal.ErrParse) {
				countProposal(backend, "parse_error")
				respondError(c, http.StatusBadGateway,
					datatypes.CodeParseError, "proposer produced no usable patch", gin.H{
						"reason": err.Error(),
					})
				return
			}
			countProposal(backend, "error")
			slog.Error("proposal backend failed", "backend", backend, "error", err)
			respondError(c, http.StatusBadGateway,
				datatypes.CodeInternalError, "proposal backend failed", nil)
			return
		}

		countProposal(backend, "success")
		countRequest("propose", "success")
		respond(c, http.StatusOK, gin.H{
			"base_version": current.Version,
			"proposal":     p,
		})
	}
}

func countProposal(backend, status string) {
	if m := observability.DefaultMetrics; m != nil {
		m.ProposalsTotal.WithLabelValues(backend, status).Inc()
	}
}
