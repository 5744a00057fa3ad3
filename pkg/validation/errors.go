/*
Copyright © 2026 CPStack Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package validation defines the error taxonomy shared by all preflight
// checks. Every check failure is one of a small set of kinds so the
// orchestrator and the CLI can classify failures without string matching.
package validation

import (
	"errors"
	"fmt"
)

// Kind classifies a validation failure.
type Kind string

const (
	// KindConfigKeyMissing indicates a required setting was absent from
	// the configuration snapshot.
	KindConfigKeyMissing Kind = "ConfigKeyMissing"

	// KindFormatInvalid indicates a value failed to parse as the expected
	// type or violates a static format rule.
	KindFormatInvalid Kind = "FormatInvalid"

	// KindRangeInvalid indicates a parsed value violates an ordering,
	// containment, or overlap invariant.
	KindRangeInvalid Kind = "RangeInvalid"

	// KindHostStateInvalid indicates live host state fails an expectation.
	KindHostStateInvalid Kind = "HostStateInvalid"

	// KindCommandFailed indicates an external command exited non-zero or
	// could not be spawned.
	KindCommandFailed Kind = "CommandFailed"
)

// Error is a classified validation failure. Instances are created at the
// failure site and propagate upward unchanged; nothing enriches them after
// creation.
type Error struct {
	// Kind is the failure class.
	Kind Kind

	// Subject names what failed: a config key, a field label, a check
	// name, or a command name depending on Kind.
	Subject string

	// Detail is the human-readable diagnostic for this failure.
	Detail string

	// Cause is the underlying error, if any.
	Cause error
}

// Error renders one human-readable diagnostic line.
func (e *Error) Error() string {
	if e.Subject == "" {
		return e.Detail
	}
	return fmt.Sprintf("%s: %s", e.Subject, e.Detail)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// KeyMissing reports a required configuration key that was absent.
func KeyMissing(key string) *Error {
	return &Error{
		Kind:    KindConfigKeyMissing,
		Subject: key,
		Detail:  "value is missing in configuration",
	}
}

// FormatInvalid reports a value that failed to parse or violates a static
// format rule.
func FormatInvalid(field, value, reason string) *Error {
	return &Error{
		Kind:    KindFormatInvalid,
		Subject: field,
		Detail:  fmt.Sprintf("%q not valid: %s", value, reason),
	}
}

// RangeInvalid reports an ordering, containment, or overlap violation.
func RangeInvalid(field, detail string) *Error {
	return &Error{
		Kind:    KindRangeInvalid,
		Subject: field,
		Detail:  detail,
	}
}

// HostStateInvalid reports live host state failing an expectation.
func HostStateInvalid(check, detail string) *Error {
	return &Error{
		Kind:    KindHostStateInvalid,
		Subject: check,
		Detail:  detail,
	}
}

// CommandFailed reports an external command that exited non-zero or could
// not be spawned. Output is the combined stdout+stderr captured from the
// process, when available.
func CommandFailed(command, output string, cause error) *Error {
	return &Error{
		Kind:    KindCommandFailed,
		Subject: command,
		Detail:  fmt.Sprintf("failed: %s", output),
		Cause:   cause,
	}
}

// KindOf returns the Kind of err if it is (or wraps) a validation Error.
// The second return is false for unclassified errors.
func KindOf(err error) (Kind, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Kind, true
	}
	return "", false
}
