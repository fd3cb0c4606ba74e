// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for user-supplied
// identifiers.
//
// Metric field names arrive from API callers and end up inside proposal
// prompts and patch documents. Validating them here keeps arbitrary text
// out of those surfaces.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// fieldPattern matches valid metric field names.
// Allows: lowercase letters, digits, underscores. Must start with a letter.
// Max length: 64 characters.
var fieldPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// ValidateField validates a metric field name.
//
// Valid fields:
//   - 1-64 characters
//   - Lowercase letters a-z
//   - Digits 0-9
//   - Underscores, not in the leading position
//
// Returns an error if the field is invalid.
func ValidateField(field string) error {
	if field == "" {
		return fmt.Errorf("field name cannot be empty")
	}

	if !fieldPattern.MatchString(field) {
		return fmt.Errorf("invalid field name: %q (must be 1-64 lowercase alphanumeric chars or underscores, starting with a letter)", field)
	}

	return nil
}

// ValidateFields validates multiple metric field names.
// Returns an error listing all invalid fields if any fail validation.
func ValidateFields(fields []string) error {
	var invalid []string
	for _, f := range fields {
		if err := ValidateField(f); err != nil {
			invalid = append(invalid, f)
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid fields: %v", invalid)
	}
	return nil
}

// SanitizeField normalizes and validates a metric field name.
// Returns the lowercase field if valid, or an error if invalid.
func SanitizeField(field string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(field))
	if err := ValidateField(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
