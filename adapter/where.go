/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package adapter

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/suparena/adapterkit/errors"
	"github.com/suparena/adapterkit/schema"
)

// CleanWhere normalizes a caller-supplied where clause for the backend:
// fields are resolved to storage names (join-qualified "model.field"
// references across models), id-referencing values are coerced per the
// numeric-id policy, in/not_in values are validated to be arrays, and the
// conditions are folded into two groups: all AND conditions first, then all
// OR conditions. Arbitrary boolean nesting is intentionally not supported.
func (a *Adapter) CleanWhere(model string, where []Where) ([]CleanedWhere, error) {
	if len(where) == 0 {
		return nil, nil
	}

	var ands, ors []CleanedWhere
	for _, w := range where {
		cw, err := a.cleanCondition(model, w)
		if err != nil {
			return nil, err
		}
		if cw.Connector == ConnectorOr {
			ors = append(ors, cw)
		} else {
			ands = append(ands, cw)
		}
	}
	return append(ands, ors...), nil
}

func (a *Adapter) cleanCondition(model string, w Where) (CleanedWhere, error) {
	op := w.Operator
	if op == "" {
		op = OpEq
	}
	if !op.Valid() {
		return CleanedWhere{}, errors.NewValidationError(w.Field, fmt.Sprintf("unknown operator %q", w.Operator))
	}

	conn := w.Connector
	switch conn {
	case "":
		conn = ConnectorAnd
	case ConnectorAnd, ConnectorOr:
	default:
		return CleanedWhere{}, errors.NewValidationError(w.Field, fmt.Sprintf("unknown connector %q", w.Connector))
	}

	fieldModel, fieldKey := model, w.Field
	qualified := false
	if idx := strings.IndexByte(w.Field, '.'); idx > 0 {
		fieldModel, fieldKey = w.Field[:idx], w.Field[idx+1:]
		qualified = true
	}

	resolvedField, err := a.reg.FieldName(fieldModel, fieldKey)
	if err != nil {
		return CleanedWhere{}, err
	}
	resolved := resolvedField
	if qualified {
		storageModel, err := a.reg.ModelName(fieldModel)
		if err != nil {
			return CleanedWhere{}, err
		}
		resolved = storageModel + "." + resolvedField
	}

	value := w.Value
	if op == OpIn || op == OpNotIn {
		if !isArray(value) {
			return CleanedWhere{}, errors.NewValidationError(w.Field, fmt.Sprintf("operator %q requires an array value", op))
		}
	}

	if a.reg.Options().NumericIDs && a.isIDField(fieldModel, fieldKey) {
		value, err = coerceNumericID(w.Field, value)
		if err != nil {
			return CleanedWhere{}, err
		}
	}

	return CleanedWhere{Field: resolved, Operator: op, Value: value, Connector: conn}, nil
}

// isIDField reports whether model.field is the implicit id or a declared
// reference to another model's id.
func (a *Adapter) isIDField(model, field string) bool {
	if field == schema.IDField || field == "_id" {
		return true
	}
	attr, err := a.reg.FieldAttributes(model, field)
	if err != nil {
		return false
	}
	return attr.References != nil && attr.References.Field == schema.IDField
}

func isArray(value any) bool {
	if value == nil {
		return false
	}
	k := reflect.TypeOf(value).Kind()
	return k == reflect.Slice || k == reflect.Array
}
