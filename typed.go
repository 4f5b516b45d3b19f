/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package adapterkit

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// Decode converts an adapter result row into a typed struct. Field matching
// follows json tags, string-encoded times decode into time.Time, and unknown
// keys are ignored.
func Decode[T any](row map[string]any) (*T, error) {
	if row == nil {
		return nil, nil
	}
	out := new(T)
	dec, err := newDecoder(out)
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(row); err != nil {
		return nil, fmt.Errorf("failed to decode row into %s: %w", reflect.TypeOf(*out).Name(), err)
	}
	return out, nil
}

// DecodeSlice converts a findMany result into a typed slice.
func DecodeSlice[T any](rows []map[string]any) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		item, err := Decode[T](row)
		if err != nil {
			return nil, err
		}
		if item != nil {
			out = append(out, *item)
		}
	}
	return out, nil
}

// Encode converts a typed struct into the map form adapter operations take.
func Encode(v any) (map[string]any, error) {
	var row map[string]any
	dec, err := newDecoder(&row)
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return row, nil
}

func newDecoder(target any) (*mapstructure.Decoder, error) {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     target,
		TagName:    "json",
		DecodeHook: mapstructure.StringToTimeHookFunc(timeLayout),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build decoder: %w", err)
	}
	return dec, nil
}

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"
