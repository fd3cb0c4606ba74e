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

import (
	"errors"
	"fmt"
)

// writeMode distinguishes add-style writes (insert into arrays, shifting
// later elements) from replace-style writes (overwrite in place).
type writeMode int

const (
	modeInsert writeMode = iota
	modeSet
)

// ApplyResult is the output of a successful atomic application.
type ApplyResult struct {
	// Doc is the new document snapshot. The input document is never
	// mutated; Doc shares no structure with it.
	Doc Document

	// Outcomes records, per operation, what it did.
	Outcomes []Outcome
}

// Apply applies a sequence of operations against a document snapshot.
//
// The input is treated as immutable: Apply works on a deep copy and the
// caller's document is untouched regardless of success or failure.
//
// Application is atomic. The first structural failure (test mismatch,
// missing move/copy source, bad array index, non-object root replacement)
// aborts the whole patch with an *ApplyError identifying the failing
// operation, and no partial result is returned. Path policy is not
// consulted here; the simulation layer screens operations first.
func Apply(doc Document, ops []Operation) (*ApplyResult, error) {
	var root any = DeepCopyDocument(doc)
	outcomes := make([]Outcome, 0, len(ops))

	for i, op := range ops {
		if err := op.Validate(); err != nil {
			return nil, &ApplyError{Index: i, Op: op.Op, Path: op.Path, Err: err}
		}
		newRoot, detail, err := applyOne(root, op)
		if err != nil {
			return nil, &ApplyError{Index: i, Op: op.Op, Path: op.Path, Err: err}
		}
		root = newRoot
		outcomes = append(outcomes, Outcome{Index: i, Op: op.Op, Path: op.Path, Detail: detail})
	}

	result, ok := root.(map[string]any)
	if !ok {
		// Only reachable via an add/replace of the root with a non-object.
		return nil, &ApplyError{
			Index: len(ops) - 1,
			Op:    ops[len(ops)-1].Op,
			Path:  ops[len(ops)-1].Path,
			Err:   errors.New("document root must be an object"),
		}
	}
	return &ApplyResult{Doc: result, Outcomes: outcomes}, nil
}

// applyOne dispatches a single validated operation against the working
// root and returns the (possibly replaced) root plus an audit detail.
func applyOne(root any, op Operation) (any, string, error) {
	ptr := MustParsePointer(op.Path)

	switch op.Op {
	case OpAdd:
		newRoot, err := writeAt(root, ptr.Segments(), op.Value, modeInsert)
		return newRoot, "added", err

	case OpReplace:
		newRoot, err := writeAt(root, ptr.Segments(), op.Value, modeSet)
		return newRoot, "replaced", err

	case OpRemove:
		newRoot, _, existed := removeAt(root, ptr.Segments())
		if !existed {
			// Removing a nonexistent path is a no-op, not an error.
			return newRoot, "no-op (path absent)", nil
		}
		return newRoot, "removed", nil

	case OpMove:
		from := MustParsePointer(op.From)
		val, found := resolveAt(root, from.Segments())
		if !found {
			return root, "", fmt.Errorf("move source %q does not exist", op.From)
		}
		newRoot, _, _ := removeAt(root, from.Segments())
		newRoot, err := writeAt(newRoot, ptr.Segments(), val, modeInsert)
		return newRoot, fmt.Sprintf("moved from %s", op.From), err

	case OpCopy:
		from := MustParsePointer(op.From)
		val, found := resolveAt(root, from.Segments())
		if !found {
			return root, "", fmt.Errorf("copy source %q does not exist", op.From)
		}
		newRoot, err := writeAt(root, ptr.Segments(), DeepCopy(val), modeInsert)
		return newRoot, fmt.Sprintf("copied from %s", op.From), err

	case OpTest:
		val, found := resolveAt(root, ptr.Segments())
		if !found {
			return root, "", fmt.Errorf("test path %q does not exist", op.Path)
		}
		if !DeepEqual(val, op.Value) {
			return root, "", fmt.Errorf("test failed at %q: document value does not match", op.Path)
		}
		return root, "tested equal", nil

	default:
		return root, "", fmt.Errorf("unknown op %q", op.Op)
	}
}

// resolveAt walks the segments and returns the addressed value.
func resolveAt(node any, segs []Segment) (any, bool) {
	if len(segs) == 0 {
		return node, true
	}
	seg := segs[0]

	switch container := node.(type) {
	case map[string]any:
		child, ok := container[seg.Raw]
		if !ok {
			return nil, false
		}
		return resolveAt(child, segs[1:])
	case []any:
		if seg.Kind != SegmentIndex || seg.Index >= len(container) {
			return nil, false
		}
		return resolveAt(container[seg.Index], segs[1:])
	default:
		return nil, false
	}
}

// writeAt sets a value at the addressed location, creating intermediate
// containers as needed. In modeInsert a numeric final segment inserts into
// an array (shifting later elements); in modeSet it overwrites in place.
// The returned value is the possibly-replaced node.
func writeAt(node any, segs []Segment, value any, mode writeMode) (any, error) {
	if len(segs) == 0 {
		// Writing to the root replaces the whole document.
		return value, nil
	}
	seg := segs[0]

	if len(segs) == 1 {
		return writeLeaf(node, seg, value, mode)
	}

	switch container := node.(type) {
	case map[string]any:
		child, ok := container[seg.Raw]
		if !ok || child == nil {
			child = emptyContainerFor(segs[1])
		}
		newChild, err := writeAt(child, segs[1:], value, mode)
		if err != nil {
			return node, err
		}
		container[seg.Raw] = newChild
		return container, nil

	case []any:
		if seg.Kind != SegmentIndex {
			return node, fmt.Errorf("segment %q cannot address an array", seg.Raw)
		}
		if seg.Index >= len(container) {
			return node, fmt.Errorf("array index %d out of range (length %d)", seg.Index, len(container))
		}
		newChild, err := writeAt(container[seg.Index], segs[1:], value, mode)
		if err != nil {
			return node, err
		}
		container[seg.Index] = newChild
		return container, nil

	default:
		return node, fmt.Errorf("segment %q addresses a scalar value", seg.Raw)
	}
}

// writeLeaf performs the final write into a container.
func writeLeaf(node any, seg Segment, value any, mode writeMode) (any, error) {
	switch container := node.(type) {
	case map[string]any:
		if seg.Kind == SegmentAppend {
			return node, errors.New("append marker requires an array target")
		}
		container[seg.Raw] = value
		return container, nil

	case []any:
		switch seg.Kind {
		case SegmentAppend:
			// Replace targets an existing element; "-" never names one.
			if mode == modeSet {
				return node, errors.New("append marker cannot address an existing element")
			}
			return append(container, value), nil
		case SegmentIndex:
			if mode == modeSet {
				if seg.Index >= len(container) {
					return node, fmt.Errorf("array index %d out of range (length %d)", seg.Index, len(container))
				}
				container[seg.Index] = value
				return container, nil
			}
			if seg.Index > len(container) {
				return node, fmt.Errorf("array index %d out of range (length %d)", seg.Index, len(container))
			}
			out := make([]any, 0, len(container)+1)
			out = append(out, container[:seg.Index]...)
			out = append(out, value)
			out = append(out, container[seg.Index:]...)
			return out, nil
		default:
			return node, fmt.Errorf("segment %q cannot address an array", seg.Raw)
		}

	case nil:
		// A missing parent was created upstream; only maps reach here when
		// the document held an explicit null.
		fresh := emptyContainerFor(seg)
		return writeLeaf(fresh, seg, value, mode)

	default:
		return node, fmt.Errorf("segment %q addresses a scalar value", seg.Raw)
	}
}

// removeAt deletes the addressed value. A nonexistent path reports
// existed=false and leaves the tree unchanged.
func removeAt(node any, segs []Segment) (any, any, bool) {
	if len(segs) == 0 {
		return node, nil, false
	}
	seg := segs[0]

	if len(segs) == 1 {
		switch container := node.(type) {
		case map[string]any:
			removed, ok := container[seg.Raw]
			if !ok {
				return node, nil, false
			}
			delete(container, seg.Raw)
			return container, removed, true
		case []any:
			if seg.Kind != SegmentIndex || seg.Index >= len(container) {
				return node, nil, false
			}
			removed := container[seg.Index]
			out := append(container[:seg.Index], container[seg.Index+1:]...)
			return out, removed, true
		default:
			return node, nil, false
		}
	}

	switch container := node.(type) {
	case map[string]any:
		child, ok := container[seg.Raw]
		if !ok {
			return node, nil, false
		}
		newChild, removed, existed := removeAt(child, segs[1:])
		container[seg.Raw] = newChild
		return container, removed, existed
	case []any:
		if seg.Kind != SegmentIndex || seg.Index >= len(container) {
			return node, nil, false
		}
		newChild, removed, existed := removeAt(container[seg.Index], segs[1:])
		container[seg.Index] = newChild
		return container, removed, existed
	default:
		return node, nil, false
	}
}

// emptyContainerFor picks the intermediate container type based on what
// the next segment looks like: numeric or append segments get an array,
// field names get an object.
func emptyContainerFor(next Segment) any {
	if next.Kind == SegmentIndex || next.Kind == SegmentAppend {
		return []any{}
	}
	return map[string]any{}
}
