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
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianPulse/services/patch"
	"github.com/AleutianAI/AleutianPulse/services/specstore"
)

func seedDocument() map[string]any {
	return map[string]any{
		"title": "Acquisition Overview",
		"kpis": []any{
			map[string]any{"title": "CPL", "value": 42.0},
		},
		"charts": []any{},
		"tabs": []any{
			map[string]any{"title": "Overview"},
			map[string]any{"title": "Details"},
		},
	}
}

func newSimulator(t *testing.T) (*Simulator, *specstore.Store) {
	t.Helper()

	store, err := specstore.Open(specstore.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.EnsureSeed(context.Background(), seedDocument()))

	policy, err := patch.NewPolicy()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSimulator(store, policy, logger), store
}

func TestSimulateCleanPatch(t *testing.T) {
	sim, store := newSimulator(t)
	ops := []patch.Operation{
		{Op: patch.OpAdd, Path: "/kpis/-", Value: map[string]any{"title": "CPA", "value": 55.0}},
		{Op: patch.OpReplace, Path: "/title", Value: "Acquisition Deep Dive"},
	}

	report, err := sim.Simulate(context.Background(), 1, ops)
	require.NoError(t, err)

	assert.True(t, report.Valid)
	assert.Equal(t, int64(1), report.BaseVersion)
	assert.Empty(t, report.Violations)
	assert.Len(t, report.Outcomes, 2)
	assert.Contains(t, report.Summary, `title changed from "Acquisition Overview" to "Acquisition Deep Dive"`)
	assert.Contains(t, report.Summary, "kpis: 1 added (1 -> 2)")

	kpis := report.Document["kpis"].([]any)
	assert.Len(t, kpis, 2)

	// A simulation is a dry run: the store is untouched.
	current, err := store.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), current.Version)
	assert.Equal(t, "Acquisition Overview", current.Document["title"])
}

func TestSimulateStaleVersion(t *testing.T) {
	sim, _ := newSimulator(t)

	_, err := sim.Simulate(context.Background(), 7, []patch.Operation{
		{Op: patch.OpReplace, Path: "/title", Value: "x"},
	})

	conflict, ok := specstore.IsConflict(err)
	require.True(t, ok)
	assert.Equal(t, int64(7), conflict.Expected)
	assert.Equal(t, int64(1), conflict.Current)
}

func TestSimulateCollectsAllPolicyViolations(t *testing.T) {
	sim, _ := newSimulator(t)
	ops := []patch.Operation{
		{Op: patch.OpReplace, Path: "/data_source_id", Value: "other"},
		{Op: patch.OpReplace, Path: "/nonexistent_field", Value: 1},
		{Op: patch.OpReplace, Path: "/title", Value: "fine"},
	}

	report, err := sim.Simulate(context.Background(), 1, ops)
	require.NoError(t, err)

	assert.False(t, report.Valid)
	require.Len(t, report.Violations, 2, "every violating operation is reported in one pass")
	codes := []string{report.Violations[0].Code, report.Violations[1].Code}
	assert.Contains(t, codes, patch.CodePathForbidden)
	assert.Contains(t, codes, patch.CodePathNotAllowed)
	assert.Nil(t, report.Document)
}

func TestSimulateEmptyPatch(t *testing.T) {
	sim, _ := newSimulator(t)

	report, err := sim.Simulate(context.Background(), 1, nil)
	require.NoError(t, err)

	assert.False(t, report.Valid)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, patch.CodeValidation, report.Violations[0].Code)
}

func TestSimulateApplyFailure(t *testing.T) {
	sim, _ := newSimulator(t)
	ops := []patch.Operation{
		{Op: patch.OpReplace, Path: "/title", Value: "New Title"},
		{Op: patch.OpTest, Path: "/title", Value: "Wrong Expectation"},
	}

	report, err := sim.Simulate(context.Background(), 1, ops)
	require.NoError(t, err)

	assert.False(t, report.Valid)
	require.NotNil(t, report.ApplyFailure)
	assert.Equal(t, 1, report.ApplyFailure.Index)
	assert.Equal(t, "test", report.ApplyFailure.Op)
	assert.Nil(t, report.Document)
}

func TestSimulateCatchesStructuralDamage(t *testing.T) {
	sim, _ := newSimulator(t)
	// A wholesale replace of /tabs passes path policy but loses the
	// protected tab; structural validation is the backstop.
	ops := []patch.Operation{
		{Op: patch.OpReplace, Path: "/tabs", Value: []any{
			map[string]any{"title": "Overview"},
		}},
	}

	report, err := sim.Simulate(context.Background(), 1, ops)
	require.NoError(t, err)

	assert.False(t, report.Valid)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, CodeMissingProtected, report.Issues[0].Code)
}

func TestCommitPersistsCleanPatch(t *testing.T) {
	sim, store := newSimulator(t)
	ops := []patch.Operation{
		{Op: patch.OpReplace, Path: "/title", Value: "Committed Title"},
	}

	version, report, err := sim.Commit(context.Background(), 1, ops, "rename dashboard")
	require.NoError(t, err)

	assert.Equal(t, int64(2), version)
	require.NotNil(t, report)
	assert.True(t, report.Valid)

	current, err := store.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), current.Version)
	assert.Equal(t, "Committed Title", current.Document["title"])
	assert.Equal(t, "rename dashboard", current.Note)
}

func TestCommitRejectsInvalidPatchWithoutWriting(t *testing.T) {
	sim, store := newSimulator(t)
	ops := []patch.Operation{
		{Op: patch.OpReplace, Path: "/credentials/api_key", Value: "sneaky"},
	}

	version, report, err := sim.Commit(context.Background(), 1, ops, "")
	require.NoError(t, err)

	assert.Zero(t, version)
	require.NotNil(t, report)
	assert.False(t, report.Valid)

	current, err := store.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), current.Version)
}

func TestCommitStaleVersion(t *testing.T) {
	sim, _ := newSimulator(t)

	_, _, err := sim.Commit(context.Background(), 5, []patch.Operation{
		{Op: patch.OpReplace, Path: "/title", Value: "x"},
	}, "")

	_, ok := specstore.IsConflict(err)
	assert.True(t, ok)
}
