// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package patch

// Document is the schema-loose dashboard specification tree. Collections
// (kpis, charts, tabs, funnel_stages, filters) live under well-known
// top-level keys; everything else is free-form metadata.
type Document = map[string]any

// DeepCopy returns a structurally independent copy of a JSON-shaped value
// (maps, slices, and scalars). The copy shares nothing with the input, so
// callers may mutate either side freely.
func DeepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = DeepCopy(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = DeepCopy(child)
		}
		return out
	default:
		// Scalars (string, float64, bool, nil, json.Number) are immutable.
		return v
	}
}

// DeepCopyDocument is DeepCopy specialized to a document root.
// A nil document copies to an empty one.
func DeepCopyDocument(doc Document) Document {
	if doc == nil {
		return Document{}
	}
	return DeepCopy(doc).(map[string]any)
}

// DeepEqual compares two JSON-shaped values structurally. Numeric values
// are compared by magnitude regardless of concrete Go type, so an int 2
// written programmatically equals the float64 2 produced by json.Unmarshal.
func DeepEqual(a, b any) bool {
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		return bok && af == bf
	}

	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, achild := range av {
			bchild, ok := bv[k]
			if !ok || !DeepEqual(achild, bchild) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !DeepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// asFloat normalizes the numeric types a document tree can carry.
// JSON decoding yields float64, but programmatic construction and tests
// routinely use Go integer literals.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
