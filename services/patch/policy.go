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
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianPulse/services/patch/enforcement"
)

// =============================================================================
// Violation Codes
// =============================================================================

const (
	// CodePathForbidden marks a path on the block-list. Block always wins,
	// regardless of allow-list membership.
	CodePathForbidden = "PATCH_PATH_FORBIDDEN"

	// CodePathNotAllowed marks a path outside every allow-list prefix.
	CodePathNotAllowed = "PATCH_PATH_NOT_ALLOWED"

	// CodeGuardrailExceeded marks an add into a collection already at its
	// configured ceiling.
	CodeGuardrailExceeded = "GUARDRAIL_EXCEEDED"

	// CodeGuardrailBlocked marks a remove targeting a protected entity.
	CodeGuardrailBlocked = "GUARDRAIL_BLOCKED"

	// CodeValidation marks a malformed operation shape.
	CodeValidation = "VALIDATION_ERROR"
)

// Violation is one policy finding for one operation. Violations are
// collected exhaustively so a caller sees every problem in one round trip.
type Violation struct {
	Code    string `json:"code"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Decision is the result of classifying a single path.
type Decision struct {
	Allowed bool
	Code    string
	Reason  string
}

// =============================================================================
// Configuration
// =============================================================================

// Limits holds the collection ceilings enforced on add operations.
// A zero ceiling disables the check for that collection.
type Limits struct {
	KPIs    int `yaml:"kpis" validate:"gte=0"`
	Charts  int `yaml:"charts" validate:"gte=0"`
	Tabs    int `yaml:"tabs" validate:"gte=0"`
	Filters int `yaml:"filters" validate:"gte=0"`
}

// PolicyConfig is the deserialized form of path_policy.yaml.
type PolicyConfig struct {
	AllowedPrefixes []string `yaml:"allowed_prefixes" validate:"dive,startswith=/"`
	BlockedPrefixes []string `yaml:"blocked_prefixes" validate:"dive,startswith=/"`
	Limits          Limits   `yaml:"limits"`
	ProtectedTabs   []string `yaml:"protected_tabs" validate:"dive,min=1"`
}

var configValidator = validator.New()

// Validate rejects a configuration that could silently disable the
// policy, such as a prefix without its leading slash.
func (c PolicyConfig) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid policy configuration: %w", err)
	}
	return nil
}

// limitFor maps a top-level collection key to its configured ceiling.
// Funnel stages carry no ceiling; only the four bounded collections do.
func (l Limits) limitFor(collection string) int {
	switch collection {
	case "kpis":
		return l.KPIs
	case "charts":
		return l.Charts
	case "tabs":
		return l.Tabs
	case "filters":
		return l.Filters
	default:
		return 0
	}
}

// =============================================================================
// Policy
// =============================================================================

// Policy classifies document paths and enforces structural guardrails.
//
// All checks are pure functions of (path, current document, configuration).
// The configuration itself may be swapped at runtime (see Reload and the
// fsnotify watcher), which is the only mutable state; a read lock guards it.
type Policy struct {
	mu  sync.RWMutex
	cfg PolicyConfig
}

// NewPolicy builds a Policy from the embedded default configuration.
func NewPolicy() (*Policy, error) {
	var cfg PolicyConfig
	if err := yaml.Unmarshal(enforcement.PathPolicyDefaults, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the embedded policy file: %w", err)
	}
	return &Policy{cfg: cfg}, nil
}

// NewPolicyFromFile builds a Policy from an operator-supplied YAML file.
func NewPolicyFromFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file %s: %w", path, err)
	}
	var cfg PolicyConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal policy file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("policy file %s: %w", path, err)
	}
	return &Policy{cfg: cfg}, nil
}

// Reload replaces the active configuration. Used by the policy watcher
// when the external policy file changes on disk.
func (p *Policy) Reload(cfg PolicyConfig) {
	p.mu.Lock()
	p.cfg = cfg
	p.mu.Unlock()
}

// Config returns a snapshot of the active configuration.
func (p *Policy) Config() PolicyConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

// Classify decides whether a path may be touched at all.
//
// The block-list is checked first and always wins. The document root is
// always allowed (whole-document replacement is screened per-field by the
// structural validator downstream). Anything outside the allow-list is
// rejected as not allowed.
func (p *Policy) Classify(path string) Decision {
	ptr, err := ParsePointer(path)
	if err != nil {
		return Decision{Code: CodeValidation, Reason: err.Error()}
	}

	cfg := p.Config()
	for _, blocked := range cfg.BlockedPrefixes {
		if ptr.HasPrefix(blocked) {
			return Decision{
				Code:   CodePathForbidden,
				Reason: fmt.Sprintf("path %q is under the blocked prefix %q", path, blocked),
			}
		}
	}
	if ptr.IsRoot() {
		return Decision{Allowed: true}
	}
	for _, allowed := range cfg.AllowedPrefixes {
		if ptr.HasPrefix(allowed) {
			return Decision{Allowed: true}
		}
	}
	return Decision{
		Code:   CodePathNotAllowed,
		Reason: fmt.Sprintf("path %q is outside the allowed prefixes", path),
	}
}

// CheckOperation runs every applicable policy check for one operation
// against the current document and returns all violations found.
func (p *Policy) CheckOperation(op Operation, doc Document) []Violation {
	var violations []Violation

	if err := op.Validate(); err != nil {
		return []Violation{{Code: CodeValidation, Path: op.Path, Message: err.Error()}}
	}

	if d := p.Classify(op.Path); !d.Allowed {
		violations = append(violations, Violation{Code: d.Code, Path: op.Path, Message: d.Reason})
	}
	if op.Op == OpMove || op.Op == OpCopy {
		if d := p.Classify(op.From); !d.Allowed {
			violations = append(violations, Violation{Code: d.Code, Path: op.From, Message: d.Reason})
		}
	}

	if op.Op == OpAdd {
		if v := p.checkAddGuardrail(op, doc); v != nil {
			violations = append(violations, *v)
		}
	}
	if op.Op == OpRemove {
		if v := p.checkProtectedRemoval(op.Path, doc); v != nil {
			violations = append(violations, *v)
		}
	}
	if op.Op == OpMove {
		// A move vacates its source, which is a removal in disguise.
		if v := p.checkProtectedRemoval(op.From, doc); v != nil {
			violations = append(violations, *v)
		}
	}

	return violations
}

// checkAddGuardrail rejects an add of a new element into a bounded
// collection whose current length has reached the configured ceiling.
// Writes below an existing element (e.g. /kpis/0/title) do not grow the
// collection and are not counted.
func (p *Policy) checkAddGuardrail(op Operation, doc Document) *Violation {
	ptr, err := ParsePointer(op.Path)
	if err != nil || ptr.Len() != 2 {
		return nil
	}
	last := ptr.Last()
	if last.Kind != SegmentIndex && last.Kind != SegmentAppend {
		return nil
	}

	collection := ptr.FirstField()
	limit := p.Config().Limits.limitFor(collection)
	if limit <= 0 {
		return nil
	}

	current, _ := doc[collection].([]any)
	if len(current) >= limit {
		return &Violation{
			Code: CodeGuardrailExceeded,
			Path: op.Path,
			Message: fmt.Sprintf("collection %q is at its limit of %d entries",
				collection, limit),
		}
	}
	return nil
}

// checkProtectedRemoval rejects removal of a protected tab. The target
// array index is resolved against the current document so renumbering
// cannot be used to slip past the name check.
func (p *Policy) checkProtectedRemoval(path string, doc Document) *Violation {
	ptr, err := ParsePointer(path)
	if err != nil || ptr.Len() != 2 || ptr.FirstField() != "tabs" {
		return nil
	}
	last := ptr.Last()
	if last.Kind != SegmentIndex {
		return nil
	}

	tabs, _ := doc["tabs"].([]any)
	if last.Index >= len(tabs) {
		return nil
	}
	tab, _ := tabs[last.Index].(map[string]any)
	title := tabTitle(tab)

	for _, protected := range p.Config().ProtectedTabs {
		if title == protected {
			return &Violation{
				Code:    CodeGuardrailBlocked,
				Path:    path,
				Message: fmt.Sprintf("tab %q is protected and cannot be removed", protected),
			}
		}
	}
	return nil
}

// tabTitle extracts the display name of a tab entry, preferring "title"
// and falling back to "id".
func tabTitle(tab map[string]any) string {
	if s, ok := tab["title"].(string); ok && s != "" {
		return s
	}
	if s, ok := tab["id"].(string); ok {
		return s
	}
	return ""
}
