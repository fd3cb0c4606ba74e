// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package simulation

import (
	"fmt"

	"github.com/AleutianAI/AleutianPulse/services/patch"
)

// summarizedCollections are the entity collections the diff reports
// count deltas for, in display order.
var summarizedCollections = []string{"kpis", "charts", "tabs", "funnel_stages", "filters"}

// maxVerbatimOps caps the fallback listing when no structural delta was
// detected.
const maxVerbatimOps = 5

// Summarize produces human-readable change lines for a clean simulation:
// collection count deltas and a title change, falling back to listing the
// first few operations verbatim when the patch only touched scalars.
func Summarize(before, after map[string]any, outcomes []patch.Outcome) []string {
	var lines []string

	if bt, at := titleOf(before), titleOf(after); bt != at {
		lines = append(lines, fmt.Sprintf("title changed from %q to %q", bt, at))
	}

	for _, collection := range summarizedCollections {
		b := collectionLen(before, collection)
		a := collectionLen(after, collection)
		switch {
		case a > b:
			lines = append(lines, fmt.Sprintf("%s: %d added (%d -> %d)", collection, a-b, b, a))
		case a < b:
			lines = append(lines, fmt.Sprintf("%s: %d removed (%d -> %d)", collection, b-a, b, a))
		}
	}

	if len(lines) > 0 {
		return lines
	}

	for i, outcome := range outcomes {
		if i == maxVerbatimOps {
			lines = append(lines, fmt.Sprintf("... and %d more operations", len(outcomes)-maxVerbatimOps))
			break
		}
		line := fmt.Sprintf("%s %s", outcome.Op, outcome.Path)
		if outcome.Detail != "" {
			line += " (" + outcome.Detail + ")"
		}
		lines = append(lines, line)
	}
	return lines
}

func titleOf(doc map[string]any) string {
	s, _ := doc["title"].(string)
	return s
}

func collectionLen(doc map[string]any, collection string) int {
	items, _ := doc[collection].([]any)
	return len(items)
}
