/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongodb

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/suparena/adapterkit/adapter"
	"github.com/suparena/adapterkit/errors"
)

// buildFilter translates cleaned conditions into a bson filter document. AND
// conditions land in $and, OR conditions in $or, and when both groups exist
// the $or document joins the $and list. Values filtering on _id are coerced
// to ObjectID where the string parses as one.
func buildFilter(where []adapter.CleanedWhere) (bson.M, error) {
	if len(where) == 0 {
		return bson.M{}, nil
	}

	var ands, ors []bson.M
	for _, w := range where {
		cond, err := condition(w)
		if err != nil {
			return nil, err
		}
		if w.Connector == adapter.ConnectorOr {
			ors = append(ors, cond)
		} else {
			ands = append(ands, cond)
		}
	}

	switch {
	case len(ands) > 0 && len(ors) > 0:
		return bson.M{"$and": append(ands, bson.M{"$or": ors})}, nil
	case len(ors) > 0:
		return bson.M{"$or": ors}, nil
	case len(ands) == 1:
		return ands[0], nil
	default:
		return bson.M{"$and": ands}, nil
	}
}

func condition(w adapter.CleanedWhere) (bson.M, error) {
	value := w.Value
	if isObjectIDField(w.Field) {
		value = coerceObjectID(value)
	}

	switch w.Operator {
	case adapter.OpEq:
		return bson.M{w.Field: bson.M{"$eq": value}}, nil
	case adapter.OpNe:
		return bson.M{w.Field: bson.M{"$ne": value}}, nil
	case adapter.OpLt:
		return bson.M{w.Field: bson.M{"$lt": value}}, nil
	case adapter.OpLte:
		return bson.M{w.Field: bson.M{"$lte": value}}, nil
	case adapter.OpGt:
		return bson.M{w.Field: bson.M{"$gt": value}}, nil
	case adapter.OpGte:
		return bson.M{w.Field: bson.M{"$gte": value}}, nil
	case adapter.OpIn, adapter.OpNotIn:
		items, err := listItems(w.Field, value)
		if err != nil {
			return nil, err
		}
		op := "$in"
		if w.Operator == adapter.OpNotIn {
			op = "$nin"
		}
		return bson.M{w.Field: bson.M{op: items}}, nil
	case adapter.OpContains:
		return regexCondition(w.Field, regexp.QuoteMeta(stringValue(value))), nil
	case adapter.OpStartsWith:
		return regexCondition(w.Field, "^"+regexp.QuoteMeta(stringValue(value))), nil
	case adapter.OpEndsWith:
		return regexCondition(w.Field, regexp.QuoteMeta(stringValue(value))+"$"), nil
	}
	return nil, errors.NewUnsupportedOperatorError("mongodb", string(w.Operator))
}

func regexCondition(field, pattern string) bson.M {
	return bson.M{field: bson.M{"$regex": primitive.Regex{Pattern: pattern}}}
}

// isObjectIDField covers the local _id and joined foo._id paths.
func isObjectIDField(field string) bool {
	return field == "_id" || strings.HasSuffix(field, "._id")
}

// coerceObjectID converts hex strings to ObjectID, element-wise for arrays.
// Values that do not parse stay as-is so string ids keep working.
func coerceObjectID(value any) any {
	switch v := value.(type) {
	case string:
		if oid, err := primitive.ObjectIDFromHex(v); err == nil {
			return oid
		}
		return v
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = coerceObjectID(item)
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = coerceObjectID(item)
		}
		return out
	default:
		return value
	}
}

func listItems(field string, value any) ([]any, error) {
	if items, ok := value.([]any); ok {
		return items, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, errors.NewValidationError(field, fmt.Sprintf("expected an array value, got %T", value))
	}
	items := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		items[i] = rv.Index(i).Interface()
	}
	return items, nil
}

func stringValue(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
