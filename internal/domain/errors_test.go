package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaError(t *testing.T) {
	base := errors.New("near \"TABLE\": syntax error")
	err := NewSchemaError("scores", base)

	assert.Equal(t, "schema error: table=scores, err=near \"TABLE\": syntax error", err.Error())
	assert.Equal(t, "scores", err.Table)
	assert.True(t, errors.Is(err, ErrSchema), "Should match ErrSchema")
	assert.True(t, errors.Is(err, base), "Should unwrap to the driver error")
}

func TestStorageError(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		err       error
		wantMsg   string
	}{
		{
			name:      "insert failure",
			operation: "insert_scores",
			err:       errors.New("constraint failed"),
			wantMsg:   "storage error: operation=insert_scores, err=constraint failed",
		},
		{
			name:      "wrapped not found",
			operation: "fetch_evaluation_detail",
			err:       fmt.Errorf("evaluation 7: %w", ErrNotFound),
			wantMsg:   "storage error: operation=fetch_evaluation_detail, err=evaluation 7: not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewStorageError(tt.operation, tt.err)

			assert.Equal(t, tt.wantMsg, err.Error(), "Error message mismatch")
			assert.True(t, errors.Is(err, ErrStorage), "Should match ErrStorage")
			assert.True(t, errors.Is(err, tt.err), "Should unwrap to underlying error")
		})
	}

	assert.True(t, errors.Is(NewStorageError("x", ErrNotFound), ErrNotFound))
}

func TestValidationError(t *testing.T) {
	t.Run("single error", func(t *testing.T) {
		err := NewValidationError("Submission")
		err.AddError("title is required")

		assert.Equal(t, "validation error for Submission: title is required", err.Error())
		assert.True(t, err.HasErrors(), "Should have errors")
		assert.Len(t, err.Errors, 1, "Should have one error")
	})

	t.Run("multiple errors", func(t *testing.T) {
		err := NewValidationError("Submission")
		err.AddError("student.first_name is required")
		err.AddError("student.code is required")
		err.AddError("indicator 4 is not scored")

		assert.Contains(t, err.Error(), "validation errors for Submission")
		assert.Len(t, err.Errors, 3, "Should have three errors")
	})

	t.Run("no errors", func(t *testing.T) {
		err := NewValidationError("Config")

		assert.False(t, err.HasErrors(), "Should not have errors")
		assert.Empty(t, err.Errors, "Errors slice should be empty")
	})

	t.Run("matches sentinel", func(t *testing.T) {
		var err error = NewValidationError("Submission")
		wrapped := fmt.Errorf("submit: %w", err)

		assert.True(t, errors.Is(wrapped, ErrValidation))
		var verr *ValidationError
		assert.True(t, errors.As(wrapped, &verr))
		assert.Equal(t, "Submission", verr.Entity)
	})
}

func TestCommonDomainErrors(t *testing.T) {
	tests := []struct {
		err     error
		message string
	}{
		{ErrNotFound, "not found"},
		{ErrSchema, "schema initialization failed"},
		{ErrValidation, "validation failed"},
		{ErrStorage, "storage failure"},
		{ErrUnknownScale, "unknown scale kind"},
		{ErrUnknownLabel, "unknown label"},
		{ErrInvalidConfiguration, "invalid configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Error(), "Error message mismatch")
		})
	}
}

func TestErrorKindsDoNotOverlap(t *testing.T) {
	schemaErr := NewSchemaError("criteria", errors.New("boom"))
	storageErr := NewStorageError("insert_student", errors.New("boom"))
	validationErr := NewValidationError("Submission")

	assert.False(t, errors.Is(schemaErr, ErrStorage))
	assert.False(t, errors.Is(storageErr, ErrSchema))
	assert.False(t, errors.Is(validationErr, ErrStorage))
	assert.False(t, errors.Is(storageErr, ErrValidation))
}
