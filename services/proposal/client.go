// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package proposal turns natural-language edit requests into candidate
// patch operations.
//
// A proposer is advisory only: its output is never applied directly. The
// caller feeds proposed operations through the same simulate/commit
// pipeline as any hand-written patch, so the path policy and structural
// validation apply to model output exactly as they do to user input.
package proposal

import (
	"context"

	"github.com/AleutianAI/AleutianPulse/services/patch"
)

// Request carries everything a proposer may look at. CurrentDocument is
// read-only context; proposers must not mutate it.
type Request struct {
	CurrentDocument map[string]any `json:"current_document"`
	AvailableFields []string       `json:"available_fields"`
	UserRequest     string         `json:"user_request"`
}

// Proposal is a candidate patch with the proposer's own summary of the
// intended change. Confidence is a self-assessment in [0,1] and is
// clamped during parsing; treat it as a hint, not a guarantee.
type Proposal struct {
	Operations []patch.Operation `json:"operations"`
	Summary    string            `json:"summary"`
	Confidence float64           `json:"confidence"`
}

// Proposer converts one natural-language request into a Proposal.
//
// Implementations return ErrParse (possibly wrapped) when a backend
// responded but its output could not be understood, so callers can
// distinguish "model produced garbage" from transport failures.
type Proposer interface {
	Propose(ctx context.Context, req Request) (*Proposal, error)
}
