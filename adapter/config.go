/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package adapter

import (
	"github.com/rs/zerolog"

	"github.com/suparena/adapterkit/idgen"
	"github.com/suparena/adapterkit/schema"
)

// Config is the per-deployment configuration an adapter is constructed with.
// The zero value is usable with a schema: string UUIDs, no pluralization, no
// hooks, tracing off.
type Config struct {
	// Schema is the logical model/field schema shared by every backend.
	Schema schema.Schema

	// UsePlural pluralizes storage model names without a custom override.
	UsePlural bool

	// UseNumericIDs requests autoincrement integer identifiers. Construction
	// fails when the backend does not declare NumericIDs support. Id
	// generation is skipped entirely in this mode.
	UseNumericIDs bool

	// DisableIDGeneration leaves identifier assignment to the backend.
	DisableIDGeneration bool

	// GenerateID overrides the default random generator. GenerateIDByModel
	// overrides it per model.
	GenerateID        idgen.Generator
	GenerateIDByModel map[string]idgen.Generator

	// MapKeysInput renames row keys after the input transform (logical to
	// storage, e.g. "id" to "_id"). MapKeysOutput is its inverse, applied
	// before the output transform.
	MapKeysInput  map[string]string
	MapKeysOutput map[string]string

	// TransformInput and TransformOutput are adapter-level custom transform
	// hooks. They run last in their direction and may override the value.
	TransformInput  func(model, field string, value any) (any, error)
	TransformOutput func(model, field string, value any) (any, error)

	// Capabilities overrides what the backend declares. Mainly for test
	// doubles that pretend to lack native type support.
	Capabilities *Capabilities

	// Hooks wires lifecycle hooks onto create/update/delete.
	Hooks Hooks

	// Debug selects trace emission: DebugOff{}, DebugAll(true),
	// DebugMethods{...} or *DebugCapture. Nil means off.
	Debug DebugLogs

	// Logger receives trace entries. Defaults to a stderr zerolog logger
	// tagged with the backend id.
	Logger *zerolog.Logger
}

// OpOption customizes a single adapter call.
type OpOption func(*opOptions)

type opOptions struct {
	sel          []string
	forceAllowID bool
	side         SideChannel
	limit        int
	offset       int
	sortBy       *SortBy
}

// defaultFindLimit bounds findMany when no explicit limit is given.
const defaultFindLimit = 100

func applyOpts(opts []OpOption) opOptions {
	o := opOptions{limit: defaultFindLimit}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithSelect projects the result to the given logical fields.
func WithSelect(fields ...string) OpOption {
	return func(o *opOptions) { o.sel = fields }
}

// WithForceAllowID lets a create keep a caller-supplied id instead of
// stripping it and generating a fresh one.
func WithForceAllowID() OpOption {
	return func(o *opOptions) { o.forceAllowID = true }
}

// WithSideChannel redirects the write of a mutating call; see SideChannel.
func WithSideChannel(fn SideChannel) OpOption {
	return func(o *opOptions) { o.side = fn }
}

// WithLimit caps the number of rows findMany returns.
func WithLimit(n int) OpOption {
	return func(o *opOptions) {
		if n > 0 {
			o.limit = n
		}
	}
}

// WithOffset skips the first n matching rows.
func WithOffset(n int) OpOption {
	return func(o *opOptions) {
		if n > 0 {
			o.offset = n
		}
	}
}

// WithSort orders findMany by a logical field. The field is resolved to its
// storage name before it reaches the backend.
func WithSort(field string, direction SortDirection) OpOption {
	return func(o *opOptions) { o.sortBy = &SortBy{Field: field, Direction: direction} }
}
