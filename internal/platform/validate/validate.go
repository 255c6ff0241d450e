// Copyright (c) 2026 Folivafy authors. All rights reserved.

// Package validate provides a chainable Validator that collects field-level
// errors before returning a single [apperr.AppError].
//
// # Architecture
//
// HTTP handlers and the query engine use it to check input before it reaches
// the write pipeline or the store; storage code never uses it.
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ErikWegner/folivafy-go/internal/platform/apperr"
)

var (
	// collectionNameRegex matches a collection name: starts with a
	// lowercase letter, followed by lowercase letters, digits, hyphens.
	collectionNameRegex = regexp.MustCompile(`^[a-z][-a-z0-9]*$`)

	// uuidRegex matches a lowercase hyphenated UUID string of any version.
	uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

	// extraFieldsRegex matches a comma list of bare top-level field names.
	extraFieldsRegex = regexp.MustCompile(`^[A-Za-z0-9]+(,[A-Za-z0-9]+)*$`)

	// sortRegex matches a comma list of dotted field paths each suffixed
	// by a single + (ascending) or - (descending) direction marker.
	sortRegex = regexp.MustCompile(`^[A-Za-z0-9]+(\.[A-Za-z0-9]+)*[+\-](,[A-Za-z0-9]+(\.[A-Za-z0-9]+)*[+\-])*$`)

	// ErrInvalidJSON is returned when the request body cannot be decoded.
	ErrInvalidJSON = apperr.BadRequest("Invalid JSON payload")
)

// Validator collects field-level validation errors via a fluent, chainable API.
//
// # Concurrency
//
// Validator is not safe for concurrent use. A new instance must be created
// for every request/operation.
type Validator struct {
	errs []apperr.FieldError
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "This field is required")
	}
	return v
}

// MaxLen fails if the Unicode character count exceeds max.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("Maximum %d characters", max))
	}
	return v
}

// MinLen fails if the Unicode character count is below min.
func (v *Validator) MinLen(field, value string, min int) *Validator {
	if utf8.RuneCountInString(value) < min {
		v.add(field, fmt.Sprintf("Minimum %d characters", min))
	}
	return v
}

// Range fails if the value is outside the [min, max] range (inclusive).
func (v *Validator) Range(field string, value, min, max int) *Validator {
	if value < min || value > max {
		v.add(field, fmt.Sprintf("Must be between %d and %d", min, max))
	}
	return v
}

// Email fails if the value is not a valid RFC 5322 email address.
func (v *Validator) Email(field, value string) *Validator {
	if _, err := mail.ParseAddress(value); err != nil {
		v.add(field, "Must be a valid email address")
	}
	return v
}

// CollectionName fails if value is not a valid collection name: 1-32
// characters matching ^[a-z][-a-z0-9]*$.
func (v *Validator) CollectionName(field, value string) *Validator {
	if utf8.RuneCountInString(value) < 1 || utf8.RuneCountInString(value) > 32 || !collectionNameRegex.MatchString(value) {
		v.add(field, "Must be 1-32 characters matching ^[a-z][-a-z0-9]*$")
	}
	return v
}

// UUID fails if the value is not a valid UUID string (case-insensitive).
func (v *Validator) UUID(field, value string) *Validator {
	lower := strings.ToLower(value)
	if !uuidRegex.MatchString(lower) {
		v.add(field, "Must be a valid UUID")
	}
	return v
}

// ExtraFields fails if value is non-empty and does not match the comma
// list of bare field names the query engine accepts for projection.
func (v *Validator) ExtraFields(field, value string) *Validator {
	if value != "" && !extraFieldsRegex.MatchString(value) {
		v.add(field, "Must be a comma-separated list of field names")
	}
	return v
}

// Sort fails if value is non-empty and does not match the dotted
// field-path + direction-marker grammar the query engine accepts.
func (v *Validator) Sort(field, value string) *Validator {
	if value != "" && !sortRegex.MatchString(value) {
		v.add(field, "Must be a comma-separated list of dotted field paths each ending in + or -")
	}
	return v
}

// OneOf fails if the value is not in the allowed set of strings.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.add(field, fmt.Sprintf("Must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// Custom adds a failure with a custom message if the condition is true.
//
// # Example
//
//	v.Custom ("limit", limit < 1 || limit > 250, "Must be between 1 and 250")
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if failed {
		v.add(field, message)
	}
	return v
}

// Err returns a [apperr.AppError] (BAD_REQUEST) if any rules failed,
// or nil if all rules passed.
//
// This is the only output method — call it at the end of the chain.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.BadRequestJSON("Validation failed", v.errs...)
}

// HasErrors reports whether any validation rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

// add appends a [apperr.FieldError] to the internal slice.
func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}

// RequiredError is a shortcut to create a single-field validation error.
func RequiredError(field, message string) *apperr.AppError {
	return apperr.BadRequestJSON("Validation failed", apperr.FieldError{
		Field:   field,
		Message: message,
	})
}
