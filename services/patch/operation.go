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
	"fmt"
)

// =============================================================================
// Operations
// =============================================================================

// Op is the kind of a patch operation.
type Op string

const (
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
	OpReplace Op = "replace"
	OpMove    Op = "move"
	OpCopy    Op = "copy"
	OpTest    Op = "test"
)

// knownOps is the closed set of supported operation kinds.
var knownOps = map[Op]bool{
	OpAdd:     true,
	OpRemove:  true,
	OpReplace: true,
	OpMove:    true,
	OpCopy:    true,
	OpTest:    true,
}

// Operation is a single RFC-6902-style patch operation as received on the
// wire. Operations are immutable once received; the interpreter never
// writes back into them.
//
// Value is used by add, replace and test. From is required by move and
// copy and ignored otherwise.
type Operation struct {
	Op    Op     `json:"op" validate:"required,oneof=add remove replace move copy test"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
	From  string `json:"from,omitempty"`
}

// Validate checks the operation's shape: a known op, a parseable path,
// and a parseable from-path where one is required. It does not consult
// any document; structural failures (missing from-value, test mismatch)
// surface during application.
func (o Operation) Validate() error {
	if !knownOps[o.Op] {
		return fmt.Errorf("unknown op %q", o.Op)
	}
	ptr, err := ParsePointer(o.Path)
	if err != nil {
		return err
	}
	switch o.Op {
	case OpMove, OpCopy:
		from, err := ParsePointer(o.From)
		if err != nil {
			return fmt.Errorf("invalid from-path: %w", err)
		}
		if from.IsRoot() && o.Op == OpMove {
			return fmt.Errorf("move cannot use the document root as from-path")
		}
	case OpRemove:
		if ptr.IsRoot() {
			return fmt.Errorf("remove cannot target the document root")
		}
	}
	return nil
}

// String renders the operation compactly for diff summaries and logs.
func (o Operation) String() string {
	if o.From != "" {
		return fmt.Sprintf("%s %s -> %s", o.Op, o.From, o.Path)
	}
	path := o.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("%s %s", o.Op, path)
}

// Outcome records what a single operation did during a successful
// application. Outcomes exist for auditability; on failure the whole
// patch is rejected and no outcomes are returned.
type Outcome struct {
	Index  int    `json:"index"`
	Op     Op     `json:"op"`
	Path   string `json:"path"`
	Detail string `json:"detail,omitempty"`
}

// ApplyError describes why a patch was rejected. Index identifies the
// failing operation within the submitted sequence.
type ApplyError struct {
	Index int
	Op    Op
	Path  string
	Err   error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("operation %d (%s %s): %v", e.Index, e.Op, e.Path, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}
