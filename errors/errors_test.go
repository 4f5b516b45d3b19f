/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestConfigurationError(t *testing.T) {
	err := NewConfigurationError("sqlite", "numeric ids requested but backend does not support them")

	expected := `adapter "sqlite" configuration error: numeric ids requested but backend does not support them`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !errors.Is(err, ErrConfiguration) {
		t.Error("ConfigurationError should match ErrConfiguration")
	}

	if !IsConfiguration(err) {
		t.Error("IsConfiguration should return true for ConfigurationError")
	}
}

func TestSchemaResolutionError(t *testing.T) {
	tests := []struct {
		name     string
		model    string
		field    string
		known    map[string]string
		contains []string
	}{
		{
			name:     "unknown model with dump",
			model:    "widget",
			known:    map[string]string{"user": "users", "session": "sessions"},
			contains: []string{`model "widget" not found`, "session=>sessions", "user=>users"},
		},
		{
			name:     "unknown field",
			model:    "user",
			field:    "nickname",
			contains: []string{`field "nickname" not found in model "user"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.field != "" {
				err = NewFieldResolutionError(tt.model, tt.field, tt.known)
			} else {
				err = NewSchemaResolutionError(tt.model, tt.known)
			}

			for _, want := range tt.contains {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("Expected error message to contain %q, got %q", want, err.Error())
				}
			}

			if !IsSchemaResolution(err) {
				t.Error("IsSchemaResolution should return true for SchemaResolutionError")
			}
		})
	}
}

func TestSchemaResolutionErrorDumpIsSorted(t *testing.T) {
	err := NewSchemaResolutionError("x", map[string]string{
		"zeta":  "zetas",
		"alpha": "alphas",
		"mid":   "mids",
	})

	msg := err.Error()
	if strings.Index(msg, "alpha=>") > strings.Index(msg, "mid=>") ||
		strings.Index(msg, "mid=>") > strings.Index(msg, "zeta=>") {
		t.Errorf("Expected schema dump in sorted order, got %q", msg)
	}
}

func TestUnsupportedOperatorError(t *testing.T) {
	err := NewUnsupportedOperatorError("dynamodb", "ends_with")

	expected := `backend "dynamodb" cannot express operator "ends_with"`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !errors.Is(err, ErrUnsupportedOperator) {
		t.Error("UnsupportedOperatorError should match ErrUnsupportedOperator")
	}

	if !IsUnsupportedOperator(err) {
		t.Error("IsUnsupportedOperator should return true for UnsupportedOperatorError")
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "with field",
			field:    "status",
			message:  `operator "in" requires an array value`,
			expected: `validation failed for field "status": operator "in" requires an array value`,
		},
		{
			name:     "without field",
			field:    "",
			message:  "missing where clause",
			expected: "validation failed: missing where clause",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message)

			if err.Error() != tt.expected {
				t.Errorf("Expected error message %q, got %q", tt.expected, err.Error())
			}

			if !IsValidationError(err) {
				t.Error("IsValidationError should return true for ValidationError")
			}
		})
	}
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("user", "abc-123")

	expected := `user with key "abc-123" not found`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !IsNotFound(err) {
		t.Error("IsNotFound should return true for NotFoundError")
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{ErrConfiguration, ErrSchemaResolution, ErrUnsupportedOperator, ErrInvalidInput, ErrNotFound}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %v should not match %v", a, b)
			}
		}
	}
}
