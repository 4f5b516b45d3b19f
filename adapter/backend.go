/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package adapter

import (
	"context"
)

// Operator enumerates the filter operators a Where condition may carry.
type Operator string

const (
	OpEq         Operator = "eq"
	OpNe         Operator = "ne"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpIn         Operator = "in"
	OpNotIn      Operator = "not_in"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "starts_with"
	OpEndsWith   Operator = "ends_with"
)

// Valid reports whether op is a known operator.
func (op Operator) Valid() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte, OpIn, OpNotIn, OpContains, OpStartsWith, OpEndsWith:
		return true
	}
	return false
}

// Connector joins a condition to the rest of the where clause. Conditions
// sharing a connector are folded into one group; see the package doc for the
// two-level grouping model.
type Connector string

const (
	ConnectorAnd Connector = "AND"
	ConnectorOr  Connector = "OR"
)

// Where is one logical filter condition as supplied by a caller. Field names
// are logical; Operator defaults to eq and Connector to AND when empty.
// A field may be join-qualified as "model.field".
type Where struct {
	Field     string
	Operator  Operator
	Value     any
	Connector Connector
}

// CleanedWhere is a Where after normalization: the field resolved to its
// storage name (join-qualified fields to "storageModel.storageField"),
// id-referencing values coerced per the numeric-id policy, and the operator
// and connector validated and defaulted.
type CleanedWhere struct {
	Field     string
	Operator  Operator
	Value     any
	Connector Connector
}

// SortDirection orders findMany results.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortBy names the storage field and direction a findMany is ordered on.
type SortBy struct {
	Field     string
	Direction SortDirection
}

// Capabilities describes what a backend can represent natively. The transform
// pipeline coerces values only for the gaps: JSON to strings, dates to
// RFC 3339 strings, booleans to 0/1 integers. NumericIDs gates the
// autoincrement identifier policy at adapter construction.
type Capabilities struct {
	Booleans   bool
	Dates      bool
	JSON       bool
	NumericIDs bool
}

// Backend is the contract every concrete storage driver implements. All
// methods receive resolved storage model names and resolved CleanedWhere
// conditions, operate on storage-field-keyed raw rows, and return raw rows
// before any output transform runs.
//
// FindOne returns (nil, nil) when no row matches. UpdateMany, DeleteMany and
// Count return zero values, never errors, for empty matches.
type Backend interface {
	// ID names the concrete implementation, e.g. "memory" or "sqlite".
	ID() string

	// Capabilities reports the backend's native type support.
	Capabilities() Capabilities

	Create(ctx context.Context, model string, data map[string]any) (map[string]any, error)
	FindOne(ctx context.Context, model string, where []CleanedWhere) (map[string]any, error)
	FindMany(ctx context.Context, model string, where []CleanedWhere, limit, offset int, sortBy *SortBy) ([]map[string]any, error)
	Update(ctx context.Context, model string, where []CleanedWhere, update map[string]any) (map[string]any, error)
	UpdateMany(ctx context.Context, model string, where []CleanedWhere, update map[string]any) (int, error)
	Delete(ctx context.Context, model string, where []CleanedWhere) error
	DeleteMany(ctx context.Context, model string, where []CleanedWhere) (int, error)
	Count(ctx context.Context, model string, where []CleanedWhere) (int, error)
}

// Transactor is an optional backend capability. When implemented, the
// adapter's Transaction method delegates to it; the backend is expected to
// thread the active transaction handle through the context it passes to fn,
// so every nested adapter call inside the scope joins the same transaction.
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
