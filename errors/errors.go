/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common sentinel errors
var (
	// ErrConfiguration is returned when an adapter is constructed with an
	// invalid or unsupported configuration
	ErrConfiguration = errors.New("invalid adapter configuration")

	// ErrSchemaResolution is returned when a model or field cannot be
	// resolved against the registered schema
	ErrSchemaResolution = errors.New("schema resolution failed")

	// ErrUnsupportedOperator is returned when a backend cannot express a
	// requested filter operator
	ErrUnsupportedOperator = errors.New("unsupported filter operator")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned by backends when a row is not found
	ErrNotFound = errors.New("entity not found")
)

// ConfigurationError represents a fatal construction-time configuration
// problem. It is never retried; the adapter cannot be built.
type ConfigurationError struct {
	Adapter string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("adapter %q configuration error: %s", e.Adapter, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// SchemaResolutionError represents a failed model or field lookup. Known
// carries a diagnostic dump of the registered schema so the caller can see
// what the registry actually holds.
type SchemaResolutionError struct {
	Model string
	Field string
	Known map[string]string
}

func (e *SchemaResolutionError) Error() string {
	var b strings.Builder
	if e.Field != "" {
		fmt.Fprintf(&b, "field %q not found in model %q", e.Field, e.Model)
	} else {
		fmt.Fprintf(&b, "model %q not found in schema", e.Model)
	}
	if len(e.Known) > 0 {
		names := make([]string, 0, len(e.Known))
		for k := range e.Known {
			names = append(names, k)
		}
		sort.Strings(names)
		b.WriteString(" (registered:")
		for _, name := range names {
			fmt.Fprintf(&b, " %s=>%s", name, e.Known[name])
		}
		b.WriteString(")")
	}
	return b.String()
}

func (e *SchemaResolutionError) Is(target error) bool {
	return target == ErrSchemaResolution
}

// UnsupportedOperatorError represents a filter operator the backend's query
// compiler cannot express. Fatal per call, never retried.
type UnsupportedOperatorError struct {
	Backend  string
	Operator string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("backend %q cannot express operator %q", e.Backend, e.Operator)
}

func (e *UnsupportedOperatorError) Is(target error) bool {
	return target == ErrUnsupportedOperator
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NotFoundError represents a missing row at the backend boundary
type NotFoundError struct {
	Model string
	Key   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Model, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Helper functions for creating errors

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(adapter, reason string) error {
	return &ConfigurationError{Adapter: adapter, Reason: reason}
}

// NewSchemaResolutionError creates a new SchemaResolutionError for a model lookup
func NewSchemaResolutionError(model string, known map[string]string) error {
	return &SchemaResolutionError{Model: model, Known: known}
}

// NewFieldResolutionError creates a new SchemaResolutionError for a field lookup
func NewFieldResolutionError(model, field string, known map[string]string) error {
	return &SchemaResolutionError{Model: model, Field: field, Known: known}
}

// NewUnsupportedOperatorError creates a new UnsupportedOperatorError
func NewUnsupportedOperatorError(backend, operator string) error {
	return &UnsupportedOperatorError{Backend: backend, Operator: operator}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(model, key string) error {
	return &NotFoundError{Model: model, Key: key}
}

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsSchemaResolution checks if an error is a schema resolution error
func IsSchemaResolution(err error) bool {
	return errors.Is(err, ErrSchemaResolution)
}

// IsUnsupportedOperator checks if an error is an unsupported operator error
func IsUnsupportedOperator(err error) bool {
	return errors.Is(err, ErrUnsupportedOperator)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
