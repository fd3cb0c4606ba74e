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
	"math"
	"strings"
)

// Structural issue codes.
const (
	CodeEmptyTitle       = "EMPTY_TITLE"
	CodeNonFiniteNumber  = "NON_FINITE_NUMBER"
	CodeMissingProtected = "MISSING_PROTECTED_TAB"
	CodeEmptyEntity      = "EMPTY_ENTITY"
)

// Issue is one structural defect found in a simulated document.
type Issue struct {
	Code    string `json:"code"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidateDocument checks a post-patch document for defects a syntactically
// valid patch can still introduce: blanked titles, non-finite numbers, and
// protected tabs the policy guards but which a multi-step patch managed to
// drop. An empty slice means the document is structurally sound.
func ValidateDocument(doc map[string]any, protectedTabs []string) []Issue {
	var issues []Issue

	if title, ok := doc["title"]; ok {
		if s, isString := title.(string); !isString || strings.TrimSpace(s) == "" {
			issues = append(issues, Issue{
				Code:    CodeEmptyTitle,
				Path:    "/title",
				Message: "dashboard title must be a non-empty string",
			})
		}
	}

	issues = append(issues, checkEntityTitles(doc, "kpis")...)
	issues = append(issues, checkEntityTitles(doc, "charts")...)
	issues = append(issues, checkEntityTitles(doc, "tabs")...)
	issues = append(issues, checkFiniteNumbers(doc, "")...)
	issues = append(issues, checkProtectedTabs(doc, protectedTabs)...)

	return issues
}

// checkEntityTitles requires every element of a named collection to carry
// a non-empty title or name.
func checkEntityTitles(doc map[string]any, collection string) []Issue {
	items, ok := doc[collection].([]any)
	if !ok {
		return nil
	}
	var issues []Issue
	for i, item := range items {
		entity, ok := item.(map[string]any)
		if !ok {
			issues = append(issues, Issue{
				Code:    CodeEmptyEntity,
				Path:    fmt.Sprintf("/%s/%d", collection, i),
				Message: fmt.Sprintf("%s entry %d is not an object", collection, i),
			})
			continue
		}
		if entityTitle(entity) == "" {
			issues = append(issues, Issue{
				Code:    CodeEmptyEntity,
				Path:    fmt.Sprintf("/%s/%d", collection, i),
				Message: fmt.Sprintf("%s entry %d has no title", collection, i),
			})
		}
	}
	return issues
}

// checkFiniteNumbers walks the whole tree rejecting NaN and infinities,
// which serialize badly and poison downstream aggregation.
func checkFiniteNumbers(node any, path string) []Issue {
	switch v := node.(type) {
	case map[string]any:
		var issues []Issue
		for key, child := range v {
			issues = append(issues, checkFiniteNumbers(child, path+"/"+key)...)
		}
		return issues
	case []any:
		var issues []Issue
		for i, child := range v {
			issues = append(issues, checkFiniteNumbers(child, fmt.Sprintf("%s/%d", path, i))...)
		}
		return issues
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return []Issue{{
				Code:    CodeNonFiniteNumber,
				Path:    path,
				Message: "value is not a finite number",
			}}
		}
	}
	return nil
}

// checkProtectedTabs verifies every protected tab still exists. The policy
// blocks direct removal, but a replace of /tabs wholesale could still lose
// one; this is the backstop.
func checkProtectedTabs(doc map[string]any, protectedTabs []string) []Issue {
	if len(protectedTabs) == 0 {
		return nil
	}
	tabs, _ := doc["tabs"].([]any)
	present := make(map[string]bool, len(tabs))
	for _, item := range tabs {
		if tab, ok := item.(map[string]any); ok {
			present[entityTitle(tab)] = true
		}
	}
	var issues []Issue
	for _, name := range protectedTabs {
		if !present[name] {
			issues = append(issues, Issue{
				Code:    CodeMissingProtected,
				Path:    "/tabs",
				Message: fmt.Sprintf("protected tab %q is missing from the document", name),
			})
		}
	}
	return issues
}

// entityTitle reads an entity's display name, accepting either key.
func entityTitle(entity map[string]any) string {
	if s, ok := entity["title"].(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	if s, ok := entity["name"].(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return ""
}
