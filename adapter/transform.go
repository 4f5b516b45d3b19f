/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package adapter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/adapterkit/errors"
	"github.com/suparena/adapterkit/schema"
)

// transformer maps logical field values to backend-stored values and back,
// parameterized by the backend's capability descriptor. Coercions only happen
// for capabilities the backend lacks, so natively supported types pass
// through untouched.
type transformer struct {
	reg  *schema.Registry
	caps Capabilities
	cfg  *Config
}

// input runs the write-path direction over logical data and returns a
// storage-field-keyed row. applyDefaults is true for create only: partial
// updates must never resurrect default values for untouched fields.
func (t *transformer) input(model string, data map[string]any, applyDefaults bool) (map[string]any, error) {
	fields, err := t.reg.Fields(model)
	if err != nil {
		return nil, err
	}

	row := make(map[string]any, len(data))
	for key, attr := range fields {
		value, present := data[key]

		// Absent fields with no default and no input transform are skipped so
		// partial updates never clobber untouched columns.
		if !present {
			hasDefault := applyDefaults && (attr.Default != nil || attr.DefaultFunc != nil)
			if !hasDefault && attr.Input == nil {
				continue
			}
			if hasDefault {
				if attr.DefaultFunc != nil {
					value = attr.DefaultFunc()
				} else {
					value = attr.Default
				}
			}
		}

		if attr.Input != nil {
			value, err = attr.Input(value)
			if err != nil {
				return nil, fmt.Errorf("input transform for %s.%s failed: %w", model, key, err)
			}
		}

		if t.referencesID(attr) && t.reg.Options().NumericIDs {
			value, err = coerceNumericID(key, value)
			if err != nil {
				return nil, err
			}
		}

		value, err = t.coerceIn(attr.Type, value)
		if err != nil {
			return nil, fmt.Errorf("failed to store %s.%s: %w", model, key, err)
		}

		if t.cfg.TransformInput != nil {
			value, err = t.cfg.TransformInput(model, key, value)
			if err != nil {
				return nil, err
			}
		}

		storageKey := key
		if attr.FieldName != "" {
			storageKey = attr.FieldName
		}
		row[storageKey] = value
	}

	return remapKeys(row, t.cfg.MapKeysInput), nil
}

// output runs the read-path direction over a raw backend row and returns
// logical data, honoring a select projection. Id-typed values are always
// serialized to strings regardless of the storage representation.
func (t *transformer) output(model string, row map[string]any, sel []string) (map[string]any, error) {
	if row == nil {
		return nil, nil
	}
	row = remapKeys(row, t.cfg.MapKeysOutput)

	fields, err := t.reg.Fields(model)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(row))
	for key, attr := range fields {
		storageKey := key
		if attr.FieldName != "" {
			storageKey = attr.FieldName
		}
		value, present := row[storageKey]
		if !present {
			continue
		}

		if key == schema.IDField || t.referencesID(attr) {
			value = idToString(value)
		} else {
			value, err = t.coerceOut(attr.Type, value)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s.%s: %w", model, key, err)
			}
		}

		if attr.Output != nil {
			value, err = attr.Output(value)
			if err != nil {
				return nil, fmt.Errorf("output transform for %s.%s failed: %w", model, key, err)
			}
		}

		if t.cfg.TransformOutput != nil {
			value, err = t.cfg.TransformOutput(model, key, value)
			if err != nil {
				return nil, err
			}
		}

		if len(sel) > 0 && !contains(sel, key) {
			continue
		}
		out[key] = value
	}

	return out, nil
}

// coerceIn applies capability-driven storage coercion on the write path.
func (t *transformer) coerceIn(typ schema.FieldType, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch typ {
	case schema.TypeJSON:
		if t.caps.JSON {
			return value, nil
		}
		if s, ok := value.(string); ok && json.Valid([]byte(s)) {
			return s, nil
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("cannot serialize json value: %w", err)
		}
		return string(raw), nil

	case schema.TypeDate:
		if t.caps.Dates {
			return value, nil
		}
		switch v := value.(type) {
		case time.Time:
			return v.UTC().Format(time.RFC3339Nano), nil
		case *time.Time:
			if v == nil {
				return nil, nil
			}
			return v.UTC().Format(time.RFC3339Nano), nil
		case strfmt.DateTime:
			return time.Time(v).UTC().Format(time.RFC3339Nano), nil
		case string:
			return v, nil
		default:
			return nil, fmt.Errorf("cannot serialize %T as date", value)
		}

	case schema.TypeBoolean:
		if t.caps.Booleans {
			return value, nil
		}
		if b, ok := value.(bool); ok {
			if b {
				return 1, nil
			}
			return 0, nil
		}
		return value, nil
	}
	return value, nil
}

// coerceOut reverses coerceIn on the read path.
func (t *transformer) coerceOut(typ schema.FieldType, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch typ {
	case schema.TypeJSON:
		if t.caps.JSON {
			return value, nil
		}
		s, ok := value.(string)
		if !ok {
			return value, nil
		}
		var parsed any
		if err := json.Unmarshal([]byte(s), &parsed); err != nil {
			return nil, fmt.Errorf("stored json value is not parseable: %w", err)
		}
		return parsed, nil

	case schema.TypeDate:
		switch v := value.(type) {
		case time.Time:
			return v, nil
		case *time.Time:
			if v == nil {
				return nil, nil
			}
			return *v, nil
		case strfmt.DateTime:
			return time.Time(v), nil
		case string:
			dt, err := strfmt.ParseDateTime(v)
			if err != nil {
				return nil, fmt.Errorf("stored date value %q is not parseable: %w", v, err)
			}
			return time.Time(dt), nil
		default:
			return value, nil
		}

	case schema.TypeBoolean:
		switch v := value.(type) {
		case bool:
			return v, nil
		case int:
			return v != 0, nil
		case int64:
			return v != 0, nil
		case float64:
			return v != 0, nil
		}
		return value, nil
	}
	return value, nil
}

func (t *transformer) referencesID(attr schema.Field) bool {
	return attr.References != nil && attr.References.Field == schema.IDField
}

// coerceNumericID converts an id-referencing value to its numeric storage
// form. Arrays are coerced element-wise for in/not_in conditions.
func coerceNumericID(field string, value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errors.NewValidationError(field, fmt.Sprintf("value %q is not a numeric id", v))
		}
		return n, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			coerced, err := coerceNumericID(field, item)
			if err != nil {
				return nil, err
			}
			out[i] = coerced
		}
		return out, nil
	case []string:
		out := make([]any, len(v))
		for i, item := range v {
			coerced, err := coerceNumericID(field, item)
			if err != nil {
				return nil, err
			}
			out[i] = coerced
		}
		return out, nil
	default:
		return nil, errors.NewValidationError(field, fmt.Sprintf("value of type %T is not a numeric id", value))
	}
}

// idToString serializes any storage-native identifier representation to the
// public string form.
func idToString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case interface{ Hex() string }:
		// Document-store object ids expose their canonical form as hex.
		return v.Hex()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func remapKeys(row map[string]any, mapping map[string]string) map[string]any {
	if len(mapping) == 0 || row == nil {
		return row
	}
	out := make(map[string]any, len(row))
	for k, v := range row {
		if renamed, ok := mapping[k]; ok {
			out[renamed] = v
			continue
		}
		out[k] = v
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
