// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the wire types of the dashboard service:
// request bodies with their binding rules, the response envelope, and
// the typed dashboard entities.
package datatypes

// API error codes. Stable across releases; clients switch on these, not
// on messages.
const (
	CodeValidationError  = "VALIDATION_ERROR"
	CodePathForbidden    = "PATCH_PATH_FORBIDDEN"
	CodePathNotAllowed   = "PATCH_PATH_NOT_ALLOWED"
	CodeGuardrailExceed  = "GUARDRAIL_EXCEEDED"
	CodeGuardrailBlocked = "GUARDRAIL_BLOCKED"
	CodeVersionConflict  = "VERSION_CONFLICT"
	CodeParseError       = "PARSE_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInternalError    = "INTERNAL_ERROR"
)

// ErrorBody is the error half of the response envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Envelope is the uniform response wrapper. Success responses carry
// Data; failures carry Error. TraceID is always present so a client can
// quote it back when reporting a problem.
type Envelope struct {
	OK      bool       `json:"ok"`
	TraceID string     `json:"trace_id,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}
