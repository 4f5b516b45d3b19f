/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	stderrors "errors"
	"testing"

	"github.com/suparena/adapterkit/errors"
)

func testSchema() Schema {
	return Schema{
		"user": {Fields: map[string]Field{
			"email": {Type: TypeString, Required: true, Unique: true},
			"name":  {Type: TypeString},
		}},
		"session": {
			ModelName: "user_sessions",
			Fields: map[string]Field{
				"userId": {Type: TypeString, FieldName: "user_id", References: &Reference{Model: "user", Field: "id"}},
				"token":  {Type: TypeString, Unique: true},
			},
		},
	}
}

func TestModelNameResolution(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		model    string
		expected string
		wantErr  bool
	}{
		{name: "exact match", model: "user", expected: "user"},
		{name: "exact match plural policy", opts: Options{UsePlural: true}, model: "user", expected: "users"},
		{name: "pluralized caller name", opts: Options{UsePlural: true}, model: "users", expected: "users"},
		{name: "custom storage name wins", model: "session", expected: "user_sessions"},
		{name: "custom storage name not pluralized", opts: Options{UsePlural: true}, model: "session", expected: "user_sessions"},
		{name: "lookup by custom storage name", model: "user_sessions", expected: "user_sessions"},
		{name: "unknown model", model: "widget", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry(testSchema(), tt.opts)
			got, err := reg.ModelName(tt.model)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for model %q, got %q", tt.model, got)
				}
				if !errors.IsSchemaResolution(err) {
					t.Errorf("Expected schema resolution error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ModelName(%q) failed: %v", tt.model, err)
			}
			if got != tt.expected {
				t.Errorf("ModelName(%q) = %q, want %q", tt.model, got, tt.expected)
			}
		})
	}
}

func TestModelNameResolutionIsIdempotent(t *testing.T) {
	reg := NewRegistry(testSchema(), Options{UsePlural: true})

	first, err := reg.ModelName("session")
	if err != nil {
		t.Fatalf("first resolution failed: %v", err)
	}
	second, err := reg.ModelName(first)
	if err != nil {
		t.Fatalf("second resolution failed: %v", err)
	}
	if first != second {
		t.Errorf("resolution not idempotent: %q then %q", first, second)
	}
}

func TestFieldNameResolution(t *testing.T) {
	reg := NewRegistry(testSchema(), Options{})

	tests := []struct {
		model    string
		field    string
		expected string
	}{
		{"user", "email", "email"},
		{"session", "userId", "user_id"},
		{"session", "token", "token"},
		{"user", "id", "id"},
		{"user", "_id", "id"},
	}

	for _, tt := range tests {
		got, err := reg.FieldName(tt.model, tt.field)
		if err != nil {
			t.Fatalf("FieldName(%q, %q) failed: %v", tt.model, tt.field, err)
		}
		if got != tt.expected {
			t.Errorf("FieldName(%q, %q) = %q, want %q", tt.model, tt.field, got, tt.expected)
		}
	}

	if _, err := reg.FieldName("user", "nickname"); !errors.IsSchemaResolution(err) {
		t.Errorf("Expected schema resolution error for unknown field, got %v", err)
	}
}

func TestFieldAttributesInjectsSyntheticID(t *testing.T) {
	t.Run("string ids", func(t *testing.T) {
		reg := NewRegistry(testSchema(), Options{})
		attr, err := reg.FieldAttributes("user", "id")
		if err != nil {
			t.Fatalf("FieldAttributes failed: %v", err)
		}
		if attr.Type != TypeString {
			t.Errorf("Expected string id attribute, got %q", attr.Type)
		}
		if !attr.Required || !attr.Unique {
			t.Error("Expected synthetic id to be required and unique")
		}
	})

	t.Run("numeric ids", func(t *testing.T) {
		reg := NewRegistry(testSchema(), Options{NumericIDs: true})
		attr, err := reg.FieldAttributes("user", "id")
		if err != nil {
			t.Fatalf("FieldAttributes failed: %v", err)
		}
		if attr.Type != TypeNumber {
			t.Errorf("Expected number id attribute, got %q", attr.Type)
		}
	})
}

func TestFieldsReturnsCallScopedCopy(t *testing.T) {
	reg := NewRegistry(testSchema(), Options{})

	first, err := reg.Fields("user")
	if err != nil {
		t.Fatalf("Fields failed: %v", err)
	}
	if _, ok := first["id"]; !ok {
		t.Fatal("Expected synthetic id in field map")
	}

	// Mutating the returned map must not leak into later lookups.
	first["email"] = Field{Type: TypeNumber}
	delete(first, "id")

	second, err := reg.Fields("user")
	if err != nil {
		t.Fatalf("Fields failed: %v", err)
	}
	if second["email"].Type != TypeString {
		t.Error("Registry field map was mutated through a call-scoped copy")
	}
	if _, ok := second["id"]; !ok {
		t.Error("Synthetic id missing after earlier caller deleted its copy")
	}
}

func TestUnknownModelErrorCarriesDump(t *testing.T) {
	reg := NewRegistry(testSchema(), Options{UsePlural: true})

	_, err := reg.ModelName("widget")
	if err == nil {
		t.Fatal("Expected error for unknown model")
	}
	var sre *errors.SchemaResolutionError
	if !stderrors.As(err, &sre) {
		t.Fatalf("Expected SchemaResolutionError, got %T", err)
	}
	if sre.Known["user"] != "users" || sre.Known["session"] != "user_sessions" {
		t.Errorf("Expected diagnostic dump of registered models, got %v", sre.Known)
	}
}
