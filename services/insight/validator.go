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

import (
	"fmt"
	"math"
	"strings"
)

// =============================================================================
// Severities and Findings
// =============================================================================

// Severity grades a validation finding. Critical and error findings block
// the insight engine; warning and info findings are surfaced but do not.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Validation finding codes.
const (
	CodeInsufficientData   = "INSUFFICIENT_DATA"
	CodeNonFiniteValue     = "NON_FINITE_VALUE"
	CodeNonFiniteAggregate = "NON_FINITE_AGGREGATE"
	CodeSuspiciousRate     = "SUSPICIOUS_RATE"
	CodeNegativeCurrency   = "NEGATIVE_CURRENCY"
	CodeMissingDateField   = "MISSING_DATE_FIELD"
)

// Finding is one validation issue.
type Finding struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
}

// ValidationResult is the outcome of one validation call. Ephemeral.
type ValidationResult struct {
	IsValid         bool      `json:"is_valid"`
	Errors          []Finding `json:"errors"`
	Warnings        []Finding `json:"warnings"`
	ChecksPerformed []string  `json:"checks_performed"`
}

// =============================================================================
// Configuration
// =============================================================================

// ValidatorConfig toggles the individual integrity checks.
type ValidatorConfig struct {
	// MinRows is the sufficiency floor. Below it, insights are unreliable
	// and the dataset is rejected outright.
	MinRows int

	// CheckRowValues scans row-level numeric fields for non-finite values.
	CheckRowValues bool

	// CheckAggregates scans the aggregate map for non-finite values.
	// Derived metrics are load-bearing for every rule, so a bad aggregate
	// is graded critical rather than error.
	CheckAggregates bool

	// CheckUnits applies unit-sanity heuristics to rate-like and
	// currency-like fields.
	CheckUnits bool

	// RequireDateField demands a usable date-like field on every row.
	RequireDateField bool

	// DateField names the expected date field. Default "date".
	DateField string
}

// DefaultValidatorConfig enables every check with a three-row floor.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		MinRows:          3,
		CheckRowValues:   true,
		CheckAggregates:  true,
		CheckUnits:       true,
		RequireDateField: true,
		DateField:        "date",
	}
}

// =============================================================================
// Validator
// =============================================================================

// Validate runs the configured integrity checks over a dataset and its
// aggregates. Every enabled check contributes a named entry to
// ChecksPerformed whether or not it found anything, so the audit trail
// shows what was actually inspected.
func Validate(rows []Row, aggregates map[string]float64, cfg ValidatorConfig) *ValidationResult {
	result := &ValidationResult{
		Errors:          []Finding{},
		Warnings:        []Finding{},
		ChecksPerformed: []string{},
	}

	checkSufficiency(rows, cfg, result)
	if cfg.CheckRowValues {
		checkRowValues(rows, result)
	}
	if cfg.CheckAggregates {
		checkAggregates(aggregates, result)
	}
	if cfg.CheckUnits {
		checkUnitSanity(rows, aggregates, result)
	}
	if cfg.RequireDateField {
		checkDateField(rows, cfg, result)
	}

	result.IsValid = true
	for _, f := range result.Errors {
		if f.Severity == SeverityCritical || f.Severity == SeverityError {
			result.IsValid = false
			break
		}
	}
	return result
}

// record files the finding into errors or warnings by severity.
func (r *ValidationResult) record(f Finding) {
	switch f.Severity {
	case SeverityCritical, SeverityError:
		r.Errors = append(r.Errors, f)
	default:
		r.Warnings = append(r.Warnings, f)
	}
}

func (r *ValidationResult) performed(check string) {
	r.ChecksPerformed = append(r.ChecksPerformed, check)
}

// =============================================================================
// Individual Checks
// =============================================================================

func checkSufficiency(rows []Row, cfg ValidatorConfig, result *ValidationResult) {
	result.performed("row_sufficiency")
	minRows := cfg.MinRows
	if minRows <= 0 {
		minRows = 3
	}
	if len(rows) < minRows {
		result.record(Finding{
			Code:     CodeInsufficientData,
			Severity: SeverityCritical,
			Message: fmt.Sprintf("dataset has %d rows; at least %d are required for reliable insights",
				len(rows), minRows),
		})
	}
}

func checkRowValues(rows []Row, result *ValidationResult) {
	result.performed("row_values_finite")
	for i, row := range rows {
		for field := range row {
			v, ok := numericField(row, field)
			if !ok {
				continue
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				result.record(Finding{
					Code:     CodeNonFiniteValue,
					Severity: SeverityError,
					Field:    field,
					Message:  fmt.Sprintf("row %d field %q is not a finite number", i, field),
				})
			}
		}
	}
}

func checkAggregates(aggregates map[string]float64, result *ValidationResult) {
	result.performed("aggregates_finite")
	for name, v := range aggregates {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			result.record(Finding{
				Code:     CodeNonFiniteAggregate,
				Severity: SeverityCritical,
				Field:    name,
				Message:  fmt.Sprintf("aggregate %q is not a finite number", name),
			})
		}
	}
}

// checkUnitSanity applies name-based heuristics: rate-like fields are
// expected in [0,1] or [0,100]; currency-like fields are expected to be
// non-negative. Violations are suspicious, not fatal.
func checkUnitSanity(rows []Row, aggregates map[string]float64, result *ValidationResult) {
	result.performed("unit_sanity")

	inspect := func(field string, v float64) {
		switch {
		case isRateLike(field) && v > 100:
			result.record(Finding{
				Code:     CodeSuspiciousRate,
				Severity: SeverityWarning,
				Field:    field,
				Message:  fmt.Sprintf("rate-like field %q is %.2f; expected a value in [0,1] or [0,100]", field, v),
			})
		case isCurrencyLike(field) && v < 0:
			result.record(Finding{
				Code:     CodeNegativeCurrency,
				Severity: SeverityWarning,
				Field:    field,
				Message:  fmt.Sprintf("currency-like field %q is negative (%.2f)", field, v),
			})
		}
	}

	for name, v := range aggregates {
		inspect(name, v)
	}
	for _, row := range rows {
		for field := range row {
			if v, ok := numericField(row, field); ok {
				inspect(field, v)
			}
		}
	}
}

func checkDateField(rows []Row, cfg ValidatorConfig, result *ValidationResult) {
	result.performed("date_field_present")
	dateField := cfg.DateField
	if dateField == "" {
		dateField = "date"
	}
	for i, row := range rows {
		s, ok := row[dateField].(string)
		if !ok || s == "" {
			result.record(Finding{
				Code:     CodeMissingDateField,
				Severity: SeverityError,
				Field:    dateField,
				Message:  fmt.Sprintf("row %d has no usable %q field", i, dateField),
			})
		}
	}
}

// isRateLike guesses from the field name whether a value is a ratio or
// percentage.
func isRateLike(field string) bool {
	f := strings.ToLower(field)
	return strings.Contains(f, "rate") ||
		strings.Contains(f, "ratio") ||
		strings.Contains(f, "percent") ||
		strings.Contains(f, "conversion") ||
		strings.HasSuffix(f, "_pct")
}

// isCurrencyLike guesses from the field name whether a value is money.
func isCurrencyLike(field string) bool {
	f := strings.ToLower(field)
	return strings.HasPrefix(f, "cost") ||
		strings.HasPrefix(f, "cpl") ||
		strings.HasPrefix(f, "cpa") ||
		strings.Contains(f, "spend") ||
		strings.Contains(f, "revenue") ||
		strings.Contains(f, "budget")
}
