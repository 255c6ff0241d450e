// Copyright (c) 2026 Folivafy authors. All rights reserved.

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ErikWegner/folivafy-go/internal/platform/apperr"
	"github.com/ErikWegner/folivafy-go/internal/platform/validate"
)

func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    string
		hasError bool
	}{
		{"valid_string", "name", "Shapes", false},
		{"empty_string", "name", "", true},
		{"whitespace_only", "name", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required(tt.field, tt.value)

			if tt.hasError {
				assert.True(t, v.HasErrors())
				err := v.Err()
				require.NotNil(t, err)

				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, "BAD_REQUEST", ae.Code)
				assert.Equal(t, tt.field, ae.Details[0].Field)
			} else {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
			}
		})
	}
}

func TestValidator_CollectionName(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		isValid bool
	}{
		{"simple", "shapes", true},
		{"with_hyphen_and_digits", "shapes-v2", true},
		{"uppercase_rejected", "Shapes", false},
		{"starts_with_digit_rejected", "1shapes", false},
		{"starts_with_hyphen_rejected", "-shapes", false},
		{"empty_rejected", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.CollectionName("name", tt.value)
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}
}

func TestValidator_ExtraFields(t *testing.T) {
	v := &validate.Validator{}
	v.ExtraFields("extraFields", "title,edges")
	assert.False(t, v.HasErrors())

	v2 := &validate.Validator{}
	v2.ExtraFields("extraFields", "title,,edges")
	assert.True(t, v2.HasErrors())
}

func TestValidator_Sort(t *testing.T) {
	v := &validate.Validator{}
	v.Sort("sort", "created+,meta.updated-")
	assert.False(t, v.HasErrors())

	v2 := &validate.Validator{}
	v2.Sort("sort", "created")
	assert.True(t, v2.HasErrors())
}

func TestValidator_UUID(t *testing.T) {
	v := &validate.Validator{}
	v.UUID("id", "11111111-1111-1111-1111-111111111111")
	assert.False(t, v.HasErrors())

	v2 := &validate.Validator{}
	v2.UUID("id", "not-a-uuid")
	assert.True(t, v2.HasErrors())
}

func TestValidator_Chain(t *testing.T) {
	v := &validate.Validator{}

	err := v.
		Required("name", "shapes").
		CollectionName("name", "shapes").
		MinLen("title", "Shapes", 1).
		MaxLen("title", "Shapes", 150).
		Err()

	assert.NoError(t, err)
	assert.False(t, v.HasErrors())
}

func TestValidator_Chain_Failure(t *testing.T) {
	v := &validate.Validator{}

	err := v.
		Required("name", "").
		CollectionName("name", "Bad Name").
		Custom("limit", true, "Must be between 1 and 250").
		Err()

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)

	assert.Len(t, ae.Details, 3)
}
