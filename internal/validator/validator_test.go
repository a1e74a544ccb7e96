package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pethaven/internal/domain"
)

type testStruct struct {
	Name     string `json:"name" validate:"required"`
	Age      int    `json:"age" validate:"gte=0,lte=130"`
	Email    string `json:"email" validate:"required,email"`
	Optional string
}

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve), "expected *domain.ValidationError, got %T", err)
	names := make([]string, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestValidator_ValidateStruct(t *testing.T) {
	v := New()

	tests := []struct {
		name   string
		input  testStruct
		fields []string
	}{
		{
			name:  "valid struct",
			input: testStruct{Name: "Rex Shelter", Age: 25, Email: "rex@example.com"},
		},
		{
			name:   "missing required fields",
			input:  testStruct{Age: 25},
			fields: []string{"name", "email"},
		},
		{
			name:   "invalid email",
			input:  testStruct{Name: "Rex", Email: "not-an-email"},
			fields: []string{"email"},
		},
		{
			name:   "age out of range",
			input:  testStruct{Name: "Rex", Age: 150, Email: "rex@example.com"},
			fields: []string{"age"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(tt.input)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			assert.ElementsMatch(t, tt.fields, fieldNames(t, err))
		})
	}
}

func TestValidator_Validate(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate("email", "a@example.com", "email"))

	err := v.Validate("content", "", "required")
	assert.Equal(t, []string{"content"}, fieldNames(t, err))
	assert.True(t, domain.IsValidation(err))
}
