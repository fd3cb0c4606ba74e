// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package simulation runs the dry-run/commit pipeline over dashboard
// specifications.
//
// A simulation never writes: it loads the current version, checks every
// operation against the path policy, applies the patch atomically to a
// copy, structurally validates the outcome, and summarizes the change. A
// commit re-runs exactly that pipeline and then performs the
// compare-and-swap write, so nothing can be committed that would not
// simulate cleanly.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/AleutianPulse/services/patch"
	"github.com/AleutianAI/AleutianPulse/services/specstore"
)

// =============================================================================
// Reports
// =============================================================================

// ApplyFailure is the wire-friendly form of a rejected patch: the failing
// operation's position and what went wrong.
type ApplyFailure struct {
	Index   int    `json:"index"`
	Op      string `json:"op"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Report is the outcome of one simulation.
//
// Exactly one of the failure fields is populated when Valid is false:
// Violations for policy rejections, ApplyFailure for structural patch
// failures, Issues for a patch that applied but produced an invalid
// document. Document carries the preview snapshot only when Valid.
type Report struct {
	BaseVersion  int64             `json:"base_version"`
	Valid        bool              `json:"valid"`
	Violations   []patch.Violation `json:"violations,omitempty"`
	ApplyFailure *ApplyFailure     `json:"apply_failure,omitempty"`
	Issues       []Issue           `json:"issues,omitempty"`
	Outcomes     []patch.Outcome   `json:"outcomes,omitempty"`
	Summary      []string          `json:"summary,omitempty"`
	Document     patch.Document    `json:"document,omitempty"`
}

// =============================================================================
// Simulator
// =============================================================================

// Simulator wires the version store, the path policy, and the patch
// interpreter into one pipeline. Safe for concurrent use.
type Simulator struct {
	store  *specstore.Store
	policy *patch.Policy
	logger *slog.Logger
}

// NewSimulator builds a Simulator. All three dependencies are required
// except the logger, which falls back to slog.Default.
func NewSimulator(store *specstore.Store, policy *patch.Policy, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{store: store, policy: policy, logger: logger}
}

// Simulate dry-runs a patch against the current version.
//
// expectedVersion pins the base: if the store has moved past it, a
// *specstore.ConflictError is returned so the caller can refresh and
// retry. Policy violations are collected exhaustively across all
// operations before anything is applied, so one round trip reports every
// problem. An invalid result is not an error; the Report says why.
func (s *Simulator) Simulate(ctx context.Context, expectedVersion int64, ops []patch.Operation) (*Report, error) {
	current, err := s.store.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading current version: %w", err)
	}
	if current.Version != expectedVersion {
		return nil, &specstore.ConflictError{
			Expected: expectedVersion,
			Current:  current.Version,
		}
	}

	report := &Report{BaseVersion: current.Version}
	if len(ops) == 0 {
		report.Violations = []patch.Violation{{
			Code:    patch.CodeValidation,
			Message: "patch contains no operations",
		}}
		return report, nil
	}

	for _, op := range ops {
		report.Violations = append(report.Violations,
			s.policy.CheckOperation(op, current.Document)...)
	}
	if len(report.Violations) > 0 {
		s.logger.Info("simulation rejected by policy",
			"base_version", current.Version,
			"operations", len(ops),
			"violations", len(report.Violations))
		return report, nil
	}

	applied, err := patch.Apply(current.Document, ops)
	if err != nil {
		var applyErr *patch.ApplyError
		if errors.As(err, &applyErr) {
			report.ApplyFailure = &ApplyFailure{
				Index:   applyErr.Index,
				Op:      string(applyErr.Op),
				Path:    applyErr.Path,
				Message: applyErr.Err.Error(),
			}
			return report, nil
		}
		return nil, fmt.Errorf("applying patch: %w", err)
	}

	report.Issues = ValidateDocument(applied.Doc, s.policy.Config().ProtectedTabs)
	if len(report.Issues) > 0 {
		return report, nil
	}

	report.Valid = true
	report.Outcomes = applied.Outcomes
	report.Summary = Summarize(current.Document, applied.Doc, applied.Outcomes)
	report.Document = applied.Doc
	return report, nil
}

// Commit re-simulates and, on a clean result, persists the new document
// as the next version. The returned version is the committed one.
//
// The simulate-then-write window is not a race in practice: the store's
// compare-and-swap still rejects a commit whose base moved between the
// two steps.
func (s *Simulator) Commit(ctx context.Context, expectedVersion int64, ops []patch.Operation, note string) (int64, *Report, error) {
	report, err := s.Simulate(ctx, expectedVersion, ops)
	if err != nil {
		return 0, nil, err
	}
	if !report.Valid {
		return 0, report, nil
	}

	version, err := s.store.Commit(ctx, expectedVersion, report.Document, note)
	if err != nil {
		return 0, nil, err
	}

	s.logger.Info("patch committed",
		"base_version", expectedVersion,
		"new_version", version,
		"operations", len(ops))
	return version, report, nil
}
