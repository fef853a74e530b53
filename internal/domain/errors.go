package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during rubric and evaluation operations.
var (
	// ErrNotFound indicates that a query expected to match a row matched none.
	ErrNotFound = errors.New("not found")

	// ErrSchema indicates that the storage schema could not be created.
	// Every *SchemaError matches it with errors.Is.
	ErrSchema = errors.New("schema initialization failed")

	// ErrValidation indicates that caller-supplied data was rejected before
	// any storage call. Every *ValidationError matches it with errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrStorage indicates a failure of the backing store.
	// Every *StorageError matches it with errors.Is.
	ErrStorage = errors.New("storage failure")

	// ErrUnknownScale indicates a scale kind outside the known set.
	ErrUnknownScale = errors.New("unknown scale kind")

	// ErrUnknownLabel indicates a label name outside the known set.
	ErrUnknownLabel = errors.New("unknown label")

	// ErrMixedStudents indicates that the scores of one evaluation reference
	// more than one student.
	ErrMixedStudents = errors.New("evaluation scores reference more than one student")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// SchemaError reports a failed table creation. Tables created before the
// failing statement are left in place.
type SchemaError struct {
	// Table is the table whose DDL failed.
	Table string

	// Err is the underlying driver error.
	Err error
}

// Error implements the error interface for SchemaError.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: table=%s, err=%v", e.Table, e.Err)
}

// Unwrap returns the underlying error, supporting Go 1.13+ error unwrapping.
func (e *SchemaError) Unwrap() error { return e.Err }

// Is reports whether target is ErrSchema.
func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// NewSchemaError creates a new SchemaError for the given table.
func NewSchemaError(table string, err error) *SchemaError {
	return &SchemaError{Table: table, Err: err}
}

// StorageError wraps a backing store failure with the operation that
// triggered it.
type StorageError struct {
	// Operation names the repository operation, e.g. "insert_scores".
	Operation string

	// Err is the underlying driver error.
	Err error
}

// Error implements the error interface for StorageError.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: operation=%s, err=%v", e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error { return e.Err }

// Is reports whether target is ErrStorage.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// NewStorageError creates a new StorageError with the given details.
func NewStorageError(operation string, err error) *StorageError {
	return &StorageError{Operation: operation, Err: err}
}

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures, one message per field.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
