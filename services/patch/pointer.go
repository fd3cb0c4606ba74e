// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package patch implements the structured-document patch engine for
// dashboard specifications.
//
// The package has two halves that share one path representation:
//
//   - The interpreter (interpreter.go) applies RFC-6902-style operations
//     (add/remove/replace/move/copy/test) to an immutable document snapshot
//     and produces a new snapshot. Application is atomic: either every
//     operation applies or the original document is returned untouched.
//
//   - The policy layer (policy.go) classifies paths against an allow-list
//     and a block-list, enforces collection ceilings, and protects named
//     entities from removal.
//
// Paths are parsed once into a Pointer (a sequence of typed segments)
// so that the interpreter and the policy layer never disagree about what
// a path addresses.
package patch

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// Pointer Segments
// =============================================================================

// SegmentKind identifies what a single path segment addresses.
type SegmentKind int

const (
	// SegmentField addresses a named object field, e.g. "title" in /title.
	SegmentField SegmentKind = iota

	// SegmentIndex addresses a numeric array position, e.g. "0" in /kpis/0.
	SegmentIndex

	// SegmentAppend is the literal append marker "-", valid only as the
	// final segment of an add target.
	SegmentAppend
)

// Segment is one parsed element of a document path.
//
// A numeric token is recorded both ways: Index holds the parsed value for
// array addressing, and Raw keeps the original text so the segment can
// still act as an object key when the container turns out to be a map.
type Segment struct {
	Kind  SegmentKind
	Raw   string
	Index int
}

// =============================================================================
// Pointer
// =============================================================================

// Pointer is a parsed, validated document path.
//
// The zero value is the document root. Pointers are immutable after
// ParsePointer returns and safe to share between goroutines.
type Pointer struct {
	raw      string
	segments []Segment
}

// ParsePointer parses a slash-delimited path into a Pointer.
//
// Accepted forms:
//
//	""            the document root
//	"/"           also the document root
//	"/title"      a top-level field
//	"/kpis/0/id"  nested fields and array indices
//	"/kpis/-"     the append marker as the final segment
//
// The append marker anywhere except the final position is rejected, as is
// any path that does not start with a slash or contains an empty segment.
func ParsePointer(path string) (Pointer, error) {
	if path == "" || path == "/" {
		return Pointer{raw: path}, nil
	}
	if !strings.HasPrefix(path, "/") {
		return Pointer{}, fmt.Errorf("path %q must start with '/'", path)
	}

	tokens := strings.Split(path[1:], "/")
	segments := make([]Segment, 0, len(tokens))
	for i, token := range tokens {
		switch {
		case token == "":
			return Pointer{}, fmt.Errorf("path %q contains an empty segment", path)
		case token == "-":
			if i != len(tokens)-1 {
				return Pointer{}, fmt.Errorf("path %q uses the append marker before the final segment", path)
			}
			segments = append(segments, Segment{Kind: SegmentAppend, Raw: token})
		case isNumericToken(token):
			idx, err := strconv.Atoi(token)
			if err != nil || idx < 0 {
				return Pointer{}, fmt.Errorf("path %q has an invalid array index %q", path, token)
			}
			segments = append(segments, Segment{Kind: SegmentIndex, Raw: token, Index: idx})
		default:
			segments = append(segments, Segment{Kind: SegmentField, Raw: token})
		}
	}
	return Pointer{raw: path, segments: segments}, nil
}

// MustParsePointer is ParsePointer for static paths known to be valid.
// It panics on a parse error and is intended for tests and constants.
func MustParsePointer(path string) Pointer {
	p, err := ParsePointer(path)
	if err != nil {
		panic(err)
	}
	return p
}

// IsRoot reports whether the pointer addresses the whole document.
func (p Pointer) IsRoot() bool {
	return len(p.segments) == 0
}

// Segments returns the parsed segments. The returned slice must not be
// modified by the caller.
func (p Pointer) Segments() []Segment {
	return p.segments
}

// Len returns the number of segments.
func (p Pointer) Len() int {
	return len(p.segments)
}

// String returns the canonical slash-delimited form of the pointer.
func (p Pointer) String() string {
	if len(p.segments) == 0 {
		return ""
	}
	var b strings.Builder
	for _, seg := range p.segments {
		b.WriteByte('/')
		b.WriteString(seg.Raw)
	}
	return b.String()
}

// Parent returns the pointer with its final segment removed.
// The parent of the root is the root.
func (p Pointer) Parent() Pointer {
	if len(p.segments) == 0 {
		return Pointer{}
	}
	parent := Pointer{segments: p.segments[:len(p.segments)-1]}
	parent.raw = parent.String()
	return parent
}

// Last returns the final segment. Calling Last on the root is invalid;
// callers must check IsRoot first.
func (p Pointer) Last() Segment {
	return p.segments[len(p.segments)-1]
}

// FirstField returns the first segment's raw text when it is a field name,
// or "" for the root. This is what the policy layer matches prefixes on.
func (p Pointer) FirstField() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[0].Raw
}

// HasPrefix reports whether the pointer equals or is nested under the
// given slash-delimited prefix. A prefix of "" or "/" matches everything.
func (p Pointer) HasPrefix(prefix string) bool {
	if prefix == "" || prefix == "/" {
		return true
	}
	prefix = strings.TrimSuffix(prefix, "/")
	path := p.String()
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// isNumericToken reports whether a segment token consists solely of
// ASCII digits. Tokens like "007" are treated as numeric; the original
// text is preserved in Segment.Raw for map-key use.
func isNumericToken(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
