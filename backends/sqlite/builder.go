/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlite

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/suparena/adapterkit/adapter"
	"github.com/suparena/adapterkit/errors"
)

// whereClause compiles cleaned conditions into a parameterized SQL fragment.
// AND conditions are conjoined, OR conditions are disjoined, and when both
// groups are present the result is (ands) AND (ors). An empty input yields an
// empty fragment.
func whereClause(where []adapter.CleanedWhere) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	var ands, ors []string
	var andArgs, orArgs []any
	for _, w := range where {
		frag, condArgs, err := condition(w)
		if err != nil {
			return "", nil, err
		}
		if w.Connector == adapter.ConnectorOr {
			ors = append(ors, frag)
			orArgs = append(orArgs, condArgs...)
		} else {
			ands = append(ands, frag)
			andArgs = append(andArgs, condArgs...)
		}
	}

	// Argument order must track the emitted clause order: AND group first.
	switch {
	case len(ands) > 0 && len(ors) > 0:
		return "(" + strings.Join(ands, " AND ") + ") AND (" + strings.Join(ors, " OR ") + ")",
			append(andArgs, orArgs...), nil
	case len(ors) > 0:
		return strings.Join(ors, " OR "), orArgs, nil
	default:
		return strings.Join(ands, " AND "), andArgs, nil
	}
}

func condition(w adapter.CleanedWhere) (string, []any, error) {
	col := quoteIdent(w.Field)
	switch w.Operator {
	case adapter.OpEq:
		if w.Value == nil {
			return col + " IS NULL", nil, nil
		}
		return col + " = ?", []any{w.Value}, nil
	case adapter.OpNe:
		if w.Value == nil {
			return col + " IS NOT NULL", nil, nil
		}
		return col + " <> ?", []any{w.Value}, nil
	case adapter.OpLt:
		return col + " < ?", []any{w.Value}, nil
	case adapter.OpLte:
		return col + " <= ?", []any{w.Value}, nil
	case adapter.OpGt:
		return col + " > ?", []any{w.Value}, nil
	case adapter.OpGte:
		return col + " >= ?", []any{w.Value}, nil
	case adapter.OpIn, adapter.OpNotIn:
		items, err := expandList(w.Field, w.Value)
		if err != nil {
			return "", nil, err
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(items)), ", ")
		if w.Operator == adapter.OpNotIn {
			return col + " NOT IN (" + placeholders + ")", items, nil
		}
		return col + " IN (" + placeholders + ")", items, nil
	case adapter.OpContains:
		return col + " LIKE '%' || ? || '%'", []any{w.Value}, nil
	case adapter.OpStartsWith:
		return col + " LIKE ? || '%'", []any{w.Value}, nil
	case adapter.OpEndsWith:
		return col + " LIKE '%' || ?", []any{w.Value}, nil
	}
	return "", nil, errors.NewUnsupportedOperatorError("sqlite", string(w.Operator))
}

// expandList flattens an in/not_in value into positional arguments. The
// adapter has already validated that the value is array-shaped.
func expandList(field string, value any) ([]any, error) {
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

// quoteIdent double-quotes an identifier, quoting each part of a dotted
// table.column reference separately.
func quoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

// selectQuery builds a full SELECT over one table with optional where, order
// and paging clauses.
func selectQuery(table string, where []adapter.CleanedWhere, limit, offset int, sortBy *adapter.SortBy) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(quoteIdent(table))

	frag, args, err := whereClause(where)
	if err != nil {
		return "", nil, err
	}
	if frag != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(frag)
	}

	if sortBy != nil {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(quoteIdent(sortBy.Field))
		if sortBy.Direction == adapter.SortDesc {
			sb.WriteString(" DESC")
		} else {
			sb.WriteString(" ASC")
		}
	}

	switch {
	case limit > 0:
		sb.WriteString(" LIMIT ?")
		args = append(args, limit)
		if offset > 0 {
			sb.WriteString(" OFFSET ?")
			args = append(args, offset)
		}
	case offset > 0:
		// SQLite requires a LIMIT clause before OFFSET; -1 means unbounded.
		sb.WriteString(" LIMIT -1 OFFSET ?")
		args = append(args, offset)
	}

	return sb.String(), args, nil
}
