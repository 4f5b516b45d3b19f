/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"strings"

	"github.com/suparena/adapterkit/errors"
)

// IDField is the logical name of the implicit identifier field every model
// exposes. It is never declared in a user schema.
const IDField = "id"

// Options holds the per-deployment naming and identifier policy the registry
// resolves against.
type Options struct {
	// UsePlural appends "s" to storage model names that have no custom
	// override, and lets callers pass pluralized names on lookups.
	UsePlural bool

	// NumericIDs switches the synthetic id attribute to a number type. The
	// adapter validates backend support for this before construction
	// succeeds.
	NumericIDs bool
}

// Registry resolves caller-facing model and field names to their storage
// counterparts. It is built once and read-only afterwards; every lookup that
// involves the implicit id field returns a call-scoped copy so concurrent
// callers never share mutable field state.
type Registry struct {
	schema Schema
	opts   Options
}

// NewRegistry builds a registry over the given schema.
func NewRegistry(s Schema, opts Options) *Registry {
	if s == nil {
		s = Schema{}
	}
	return &Registry{schema: s, opts: opts}
}

// Options returns the naming and identifier policy the registry was built with.
func (r *Registry) Options() Options {
	return r.opts
}

// Schema returns the underlying schema. Callers must treat it as read-only.
func (r *Registry) Schema() Schema {
	return r.schema
}

// dump builds the logical-to-storage name table included in resolution errors.
func (r *Registry) dump() map[string]string {
	known := make(map[string]string, len(r.schema))
	for key := range r.schema {
		name, _ := r.ModelName(key)
		known[key] = name
	}
	return known
}

// lookup resolves a caller-given model name to its schema key. Resolution
// order: exact key match; singular retry when pluralization is active and the
// name ends in "s"; fallback scan over custom storage names.
func (r *Registry) lookup(name string) (string, Model, error) {
	if m, ok := r.schema[name]; ok {
		return name, m, nil
	}
	if r.opts.UsePlural && strings.HasSuffix(name, "s") {
		singular := strings.TrimSuffix(name, "s")
		if m, ok := r.schema[singular]; ok {
			return singular, m, nil
		}
	}
	for key, m := range r.schema {
		if m.ModelName == name {
			return key, m, nil
		}
	}
	return "", Model{}, errors.NewSchemaResolutionError(name, r.dump())
}

// ModelKey resolves a caller-given model name to its logical schema key.
func (r *Registry) ModelKey(name string) (string, error) {
	key, _, err := r.lookup(name)
	return key, err
}

// ModelName resolves a caller-given model name to its canonical storage name.
// A custom storage name wins verbatim; otherwise the schema key is used,
// pluralized when the policy asks for it.
func (r *Registry) ModelName(name string) (string, error) {
	key, m, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	if m.ModelName != "" && m.ModelName != key {
		return m.ModelName, nil
	}
	if r.opts.UsePlural {
		return key + "s", nil
	}
	return key, nil
}

// FieldName resolves a field key to its storage field name. The implicit
// id/_id field is special-cased before any declared override applies.
func (r *Registry) FieldName(model, field string) (string, error) {
	if field == IDField || field == "_id" {
		return IDField, nil
	}
	_, m, err := r.lookup(model)
	if err != nil {
		return "", err
	}
	f, ok := m.Fields[field]
	if !ok {
		return "", errors.NewFieldResolutionError(model, field, r.fieldDump(m))
	}
	if f.FieldName != "" {
		return f.FieldName, nil
	}
	return field, nil
}

// FieldAttributes returns the field descriptor for model.field. The implicit
// id field is synthesized on every call, typed per the numeric-id policy,
// so the shared schema is never written to.
func (r *Registry) FieldAttributes(model, field string) (Field, error) {
	if field == IDField || field == "_id" {
		return r.idAttribute(), nil
	}
	_, m, err := r.lookup(model)
	if err != nil {
		return Field{}, err
	}
	f, ok := m.Fields[field]
	if !ok {
		return Field{}, errors.NewFieldResolutionError(model, field, r.fieldDump(m))
	}
	return f, nil
}

// Fields returns a call-scoped copy of the model's field map with the
// synthetic id attribute included. The transform pipeline iterates this copy;
// mutating it never touches the registry.
func (r *Registry) Fields(model string) (map[string]Field, error) {
	_, m, err := r.lookup(model)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]Field, len(m.Fields)+1)
	for k, f := range m.Fields {
		fields[k] = f
	}
	fields[IDField] = r.idAttribute()
	return fields, nil
}

func (r *Registry) idAttribute() Field {
	typ := TypeString
	if r.opts.NumericIDs {
		typ = TypeNumber
	}
	return Field{Type: typ, Required: true, Unique: true}
}

func (r *Registry) fieldDump(m Model) map[string]string {
	known := make(map[string]string, len(m.Fields)+1)
	known[IDField] = IDField
	for k, f := range m.Fields {
		if f.FieldName != "" {
			known[k] = f.FieldName
		} else {
			known[k] = k
		}
	}
	return known
}
