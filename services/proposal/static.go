// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package proposal

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/AleutianAI/AleutianPulse/services/patch"
)

var quotedText = regexp.MustCompile(`"([^"]+)"`)

// StaticProposer derives proposals from keyword heuristics instead of a
// model. It backs local development and tests, and serves as the offline
// fallback when no API key is configured.
//
// Heuristics, checked in order:
//   - "rename ... \"X\"" replaces the dashboard title with X.
//   - "kpi" plus a mention of an available field appends a KPI for it.
//   - Anything else yields ErrParse, matching how an unusable model
//     response surfaces.
type StaticProposer struct{}

func (StaticProposer) Propose(_ context.Context, req Request) (*Proposal, error) {
	request := strings.ToLower(req.UserRequest)

	if strings.Contains(request, "rename") || strings.Contains(request, "title") {
		if m := quotedText.FindStringSubmatch(req.UserRequest); m != nil {
			return &Proposal{
				Operations: []patch.Operation{
					{Op: patch.OpReplace, Path: "/title", Value: m[1]},
				},
				Summary:    fmt.Sprintf("Rename the dashboard to %q", m[1]),
				Confidence: 0.9,
			}, nil
		}
	}

	if strings.Contains(request, "kpi") {
		for _, field := range req.AvailableFields {
			if !strings.Contains(request, strings.ToLower(field)) {
				continue
			}
			return &Proposal{
				Operations: []patch.Operation{
					{Op: patch.OpAdd, Path: "/kpis/-", Value: map[string]any{
						"title":  strings.ToUpper(field),
						"metric": field,
					}},
				},
				Summary:    fmt.Sprintf("Add a KPI card for %s", field),
				Confidence: 0.7,
			}, nil
		}
	}

	return nil, fmt.Errorf("%w: no heuristic matches the request", ErrParse)
}
