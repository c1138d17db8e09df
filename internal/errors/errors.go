package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrSchema is returned when a required column is absent from an input
	// source's header.
	ErrSchema = errors.New("schema error")

	// ErrNoMatches is returned by the query matcher when no input ZIP is
	// claimed by any contract; no artifact is produced in that case.
	ErrNoMatches = errors.New("no matches")

	// ErrEmptyIndex is returned when a read operation runs before any
	// successful load.
	ErrEmptyIndex = errors.New("index is empty")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)

// SchemaError reports a required column missing from a source header.
type SchemaError struct {
	Source string // which input: "contracts" or "zips"
	Column string // the missing column, or a description of it
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s input is missing required column %q", e.Source, e.Column)
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// NewSchemaError creates a new SchemaError
func NewSchemaError(source, column string) *SchemaError {
	return &SchemaError{Source: source, Column: column}
}

// StageError wraps a failure with the pipeline stage it occurred in, so
// callers can report which stage failed and under what condition without
// masking the cause.
type StageError struct {
	Stage string // "ingest", "index", "analyze", "report", "match"
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError creates a new StageError
func NewStageError(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

// JobNotFoundError represents a job not found error with context
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
