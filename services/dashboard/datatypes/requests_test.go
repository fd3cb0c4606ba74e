// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsightsRequest_ParamsCarriesBothPeriods(t *testing.T) {
	body := `{
		"rows": [
			{"date": "2026-08-10", "cpl": 120.0},
			{"date": "2026-08-11", "cpl": 125.0}
		],
		"previous_rows": [
			{"date": "2026-08-03", "cpl": 100.0}
		],
		"aggregates": {"cpl": 122.5},
		"previous_aggregates": {"cpl": 100.0},
		"funnel_stages": [{"name": "visit", "conversion": 100}],
		"date_range": {"start": "2026-08-10", "end": "2026-08-11"}
	}`

	var req InsightsRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	p := req.Params()
	require.Len(t, p.Rows, 2)
	require.Len(t, p.PreviousRows, 1)
	assert.Equal(t, 100.0, p.PreviousRows[0]["cpl"])
	assert.Equal(t, map[string]float64{"cpl": 122.5}, p.Aggregates)
	assert.Equal(t, map[string]float64{"cpl": 100.0}, p.PreviousAggregates)
	require.Len(t, p.FunnelStages, 1)
	assert.Equal(t, "visit", p.FunnelStages[0].Name)
	assert.Equal(t, "2026-08-10", p.DateRange.Start)
}
