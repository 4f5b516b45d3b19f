/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

// FieldType enumerates the logical types a field can take. Storage
// representation is a backend concern; the transform pipeline bridges the two.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeDate    FieldType = "date"
	TypeJSON    FieldType = "json"
)

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean, TypeDate, TypeJSON:
		return true
	}
	return false
}

// Transform converts a single field value on its way in or out of storage.
type Transform func(value any) (any, error)

// Reference marks a field as referencing another model's field, typically its
// id. The where normalizer and transform pipeline use it to coerce values
// under a numeric-id policy.
type Reference struct {
	Model string
	Field string
}

// Field describes one attribute of a model.
type Field struct {
	Type     FieldType
	Required bool
	Unique   bool

	// Default is applied on the write path when the field is absent from the
	// input. DefaultFunc wins over Default when both are set, which is the
	// usual shape for generated values such as timestamps.
	Default     any
	DefaultFunc func() any

	// Input and Output are field-level custom transforms, applied before the
	// capability-driven coercions on the write path and after them on the
	// read path.
	Input  Transform
	Output Transform

	References *Reference

	// FieldName overrides the storage field name. Empty means the field key
	// is used as-is.
	FieldName string
}

// Model describes one logical entity type.
type Model struct {
	// ModelName overrides the storage model name. Empty means the schema key
	// is used, subject to the pluralization policy.
	ModelName string
	Fields    map[string]Field
}

// Schema maps logical model names to their definitions. The implicit id
// field is never declared here; the registry injects it on every lookup.
type Schema map[string]Model
