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
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrParse marks a backend response that arrived but could not be turned
// into a usable proposal. Check with errors.Is.
var ErrParse = errors.New("unparseable proposal")

// ParseProposal decodes a model's raw text into a Proposal.
//
// Models wrap JSON in markdown fences or chat preamble often enough that
// the parser tolerates both: it strips fences and extracts the outermost
// JSON object before decoding. Every operation must pass shape
// validation, the proposal must contain at least one operation, and the
// confidence is clamped into [0,1]. All failures wrap ErrParse.
func ParseProposal(raw string) (*Proposal, error) {
	body, err := extractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var p Proposal
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	if len(p.Operations) == 0 {
		return nil, fmt.Errorf("%w: proposal contains no operations", ErrParse)
	}
	for i, op := range p.Operations {
		if err := op.Validate(); err != nil {
			return nil, fmt.Errorf("%w: operation %d: %v", ErrParse, i, err)
		}
	}

	if p.Confidence < 0 {
		p.Confidence = 0
	}
	if p.Confidence > 1 {
		p.Confidence = 1
	}
	return &p, nil
}

// extractJSONObject finds the outermost {...} in a possibly-fenced,
// possibly-chatty model response.
func extractJSONObject(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: no JSON object found in response", ErrParse)
	}
	return s[start : end+1], nil
}
