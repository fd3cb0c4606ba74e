// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package insight

import "math"

// percentChange computes (current - previous) / |previous| * 100.
//
// The zero-previous case is defined, not an error: growth from nothing is
// reported as a flat 100%, and zero-to-zero as 0%.
func percentChange(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / math.Abs(previous) * 100
}

// mean returns the arithmetic mean of the series.
func mean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	var sum float64
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}

// stddev returns the population standard deviation of the series.
func stddev(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	m := mean(series)
	var sumSq float64
	for _, v := range series {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(series)))
}

// zScore returns how many standard deviations v lies from the mean.
// A zero sd yields 0 rather than dividing by zero.
func zScore(v, m, sd float64) float64 {
	if sd == 0 {
		return 0
	}
	return (v - m) / sd
}

// numericField extracts a float64 from a row field, accepting the numeric
// types JSON decoding and programmatic construction produce.
func numericField(row Row, field string) (float64, bool) {
	switch n := row[field].(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
