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
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianPulse/services/patch"
)

func TestParseProposalPlainJSON(t *testing.T) {
	raw := `{
		"operations": [
			{"op": "replace", "path": "/title", "value": "Weekly Overview"}
		],
		"summary": "Rename the dashboard",
		"confidence": 0.85
	}`

	p, err := ParseProposal(raw)
	require.NoError(t, err)

	require.Len(t, p.Operations, 1)
	assert.Equal(t, patch.OpReplace, p.Operations[0].Op)
	assert.Equal(t, "/title", p.Operations[0].Path)
	assert.Equal(t, "Rename the dashboard", p.Summary)
	assert.Equal(t, 0.85, p.Confidence)
}

func TestParseProposalStripsMarkdownFence(t *testing.T) {
	raw := "Here is the patch you asked for:\n```json\n" +
		`{"operations": [{"op": "remove", "path": "/charts/2"}], "summary": "Drop chart", "confidence": 0.6}` +
		"\n```\nLet me know if you need anything else."

	p, err := ParseProposal(raw)
	require.NoError(t, err)
	require.Len(t, p.Operations, 1)
	assert.Equal(t, patch.OpRemove, p.Operations[0].Op)
}

func TestParseProposalClampsConfidence(t *testing.T) {
	p, err := ParseProposal(`{"operations": [{"op": "remove", "path": "/charts/0"}], "confidence": 3.5}`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.Confidence)

	p, err = ParseProposal(`{"operations": [{"op": "remove", "path": "/charts/0"}], "confidence": -1}`)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.Confidence)
}

func TestParseProposalFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"prose with no JSON", "I cannot help with that."},
		{"malformed JSON", `{"operations": [}`},
		{"empty operations", `{"operations": [], "summary": "nothing to do"}`},
		{"unknown op", `{"operations": [{"op": "merge", "path": "/title"}]}`},
		{"unparseable path", `{"operations": [{"op": "add", "path": "kpis"}]}`},
		{"move without usable from", `{"operations": [{"op": "move", "path": "/kpis/0", "from": "/"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProposal(tt.raw)
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestStaticProposerRename(t *testing.T) {
	p, err := StaticProposer{}.Propose(context.Background(), Request{
		UserRequest: `Rename the dashboard to "Q3 Acquisition"`,
	})
	require.NoError(t, err)

	require.Len(t, p.Operations, 1)
	assert.Equal(t, patch.OpReplace, p.Operations[0].Op)
	assert.Equal(t, "/title", p.Operations[0].Path)
	assert.Equal(t, "Q3 Acquisition", p.Operations[0].Value)
}

func TestStaticProposerAddKPI(t *testing.T) {
	p, err := StaticProposer{}.Propose(context.Background(), Request{
		UserRequest:     "add a KPI for cpl please",
		AvailableFields: []string{"spend", "cpl", "leads"},
	})
	require.NoError(t, err)

	require.Len(t, p.Operations, 1)
	assert.Equal(t, patch.OpAdd, p.Operations[0].Op)
	assert.Equal(t, "/kpis/-", p.Operations[0].Path)
	value := p.Operations[0].Value.(map[string]any)
	assert.Equal(t, "cpl", value["metric"])
}

func TestStaticProposerUnmatchedRequest(t *testing.T) {
	_, err := StaticProposer{}.Propose(context.Background(), Request{
		UserRequest:     "make it feel more cheerful",
		AvailableFields: []string{"cpl"},
	})
	assert.True(t, errors.Is(err, ErrParse))
}
