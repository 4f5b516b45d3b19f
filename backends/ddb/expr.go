/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/adapterkit/adapter"
	"github.com/suparena/adapterkit/errors"
)

// buildFilterExpression transforms cleaned conditions into:
//   - a filter expression (e.g., "#f0 = :v0 AND #f1 > :v1")
//   - a corresponding map of expression attribute names
//   - a corresponding map of expression attribute values
//
// AND conditions are conjoined, OR conditions are disjoined, and when both
// groups exist the result is (ands) AND (ors). ends_with has no DynamoDB
// function and is rejected up front.
func buildFilterExpression(where []adapter.CleanedWhere) (string,
	map[string]string,
	map[string]types.AttributeValue,
	error) {

	if len(where) == 0 {
		return "", nil, nil, nil
	}

	exprAttrNames := make(map[string]string)
	exprAttrValues := make(map[string]types.AttributeValue)
	var ands, ors []string

	for i, w := range where {
		namePlaceholder := fmt.Sprintf("#f%d", i)
		valuePlaceholder := fmt.Sprintf(":v%d", i)
		exprAttrNames[namePlaceholder] = w.Field

		var clause string
		switch w.Operator {
		case adapter.OpEq:
			clause = fmt.Sprintf("%s = %s", namePlaceholder, valuePlaceholder)
		case adapter.OpNe:
			clause = fmt.Sprintf("%s <> %s", namePlaceholder, valuePlaceholder)
		case adapter.OpLt:
			clause = fmt.Sprintf("%s < %s", namePlaceholder, valuePlaceholder)
		case adapter.OpLte:
			clause = fmt.Sprintf("%s <= %s", namePlaceholder, valuePlaceholder)
		case adapter.OpGt:
			clause = fmt.Sprintf("%s > %s", namePlaceholder, valuePlaceholder)
		case adapter.OpGte:
			clause = fmt.Sprintf("%s >= %s", namePlaceholder, valuePlaceholder)
		case adapter.OpContains:
			clause = fmt.Sprintf("contains(%s, %s)", namePlaceholder, valuePlaceholder)
		case adapter.OpStartsWith:
			clause = fmt.Sprintf("begins_with(%s, %s)", namePlaceholder, valuePlaceholder)
		case adapter.OpIn, adapter.OpNotIn:
			items, err := listItems(w.Field, w.Value)
			if err != nil {
				return "", nil, nil, err
			}
			placeholders := make([]string, len(items))
			for j, item := range items {
				p := fmt.Sprintf("%s_%d", valuePlaceholder, j)
				av, err := attributevalue.Marshal(item)
				if err != nil {
					return "", nil, nil, fmt.Errorf("failed to marshal condition value for %s: %w", w.Field, err)
				}
				exprAttrValues[p] = av
				placeholders[j] = p
			}
			clause = fmt.Sprintf("%s IN (%s)", namePlaceholder, strings.Join(placeholders, ", "))
			if w.Operator == adapter.OpNotIn {
				clause = "NOT (" + clause + ")"
			}
		default:
			return "", nil, nil, errors.NewUnsupportedOperatorError("dynamodb", string(w.Operator))
		}

		if w.Operator != adapter.OpIn && w.Operator != adapter.OpNotIn {
			av, err := attributevalue.Marshal(w.Value)
			if err != nil {
				return "", nil, nil, fmt.Errorf("failed to marshal condition value for %s: %w", w.Field, err)
			}
			exprAttrValues[valuePlaceholder] = av
		}

		if w.Connector == adapter.ConnectorOr {
			ors = append(ors, clause)
		} else {
			ands = append(ands, clause)
		}
	}

	var expr string
	switch {
	case len(ands) > 0 && len(ors) > 0:
		expr = "(" + strings.Join(ands, " AND ") + ") AND (" + strings.Join(ors, " OR ") + ")"
	case len(ors) > 0:
		expr = strings.Join(ors, " OR ")
	default:
		expr = strings.Join(ands, " AND ")
	}
	return expr, exprAttrNames, exprAttrValues, nil
}

// buildUpdateExpression transforms a map of field->value into:
//   - an update expression (e.g., "SET #f0 = :v0, #f1 = :v1")
//   - a corresponding map of expression attribute names
//   - a corresponding map of expression attribute values
//
// Fields are processed in sorted order so the expression is deterministic.
func buildUpdateExpression(update map[string]any) (string,
	map[string]string,
	map[string]types.AttributeValue,
	error) {

	if len(update) == 0 {
		return "", nil, nil, fmt.Errorf("no updates provided")
	}

	fields := make([]string, 0, len(update))
	for f := range update {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	setClauses := make([]string, 0, len(fields))
	exprAttrNames := make(map[string]string)
	exprAttrValues := make(map[string]types.AttributeValue)

	for i, field := range fields {
		namePlaceholder := fmt.Sprintf("#f%d", i)
		valuePlaceholder := fmt.Sprintf(":v%d", i)

		av, err := attributevalue.Marshal(update[field])
		if err != nil {
			return "", nil, nil, fmt.Errorf("failed to marshal update value for %s: %w", field, err)
		}

		setClauses = append(setClauses, fmt.Sprintf("%s = %s", namePlaceholder, valuePlaceholder))
		exprAttrNames[namePlaceholder] = field
		exprAttrValues[valuePlaceholder] = av
	}

	return "SET " + strings.Join(setClauses, ", "), exprAttrNames, exprAttrValues, nil
}

func listItems(field string, value any) ([]any, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, errors.NewValidationError(field, fmt.Sprintf("expected an array value, got %T", value))
	}
	if rv.Len() == 0 {
		return nil, errors.NewValidationError(field, "empty array in in/not_in condition")
	}
	items := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		items[i] = rv.Index(i).Interface()
	}
	return items, nil
}
