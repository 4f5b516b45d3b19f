/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/suparena/adapterkit/adapter"
)

// Store is an in-memory Backend. It keeps rows in insertion order per model,
// evaluates the full operator set, and supports snapshot-based transactions.
// It reports every capability, which also makes it the conformance test
// double: capability gaps are simulated by overriding Capabilities in the
// adapter config.
type Store struct {
	mu     sync.RWMutex
	tables map[string][]map[string]any
	nextID map[string]int64
	calls  map[string]int
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		tables: make(map[string][]map[string]any),
		nextID: make(map[string]int64),
		calls:  make(map[string]int),
	}
}

// ID implements adapter.Backend.
func (s *Store) ID() string { return "memory" }

// Capabilities implements adapter.Backend.
func (s *Store) Capabilities() adapter.Capabilities {
	return adapter.Capabilities{Booleans: true, Dates: true, JSON: true, NumericIDs: true}
}

// Calls returns how many times the named primitive has been invoked, for
// tests asserting that a vetoed write never reaches the backend.
func (s *Store) Calls(method string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[method]
}

func (s *Store) record(method string) {
	s.calls[method]++
}

// Create implements adapter.Backend. Rows without an id get an autoincrement
// integer, which is what the numeric-id policy relies on.
func (s *Store) Create(ctx context.Context, model string, data map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("create")

	row := cloneRow(data)
	if _, ok := row["id"]; !ok {
		s.nextID[model]++
		row["id"] = s.nextID[model]
	}
	s.tables[model] = append(s.tables[model], row)
	return cloneRow(row), nil
}

// FindOne implements adapter.Backend.
func (s *Store) FindOne(ctx context.Context, model string, where []adapter.CleanedWhere) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.record("findOne")

	for _, row := range s.tables[model] {
		ok, err := matchWhere(row, where)
		if err != nil {
			return nil, err
		}
		if ok {
			return cloneRow(row), nil
		}
	}
	return nil, nil
}

// FindMany implements adapter.Backend.
func (s *Store) FindMany(ctx context.Context, model string, where []adapter.CleanedWhere, limit, offset int, sortBy *adapter.SortBy) ([]map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.record("findMany")

	var matched []map[string]any
	for _, row := range s.tables[model] {
		ok, err := matchWhere(row, where)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, cloneRow(row))
		}
	}

	if sortBy != nil {
		field := sortBy.Field
		desc := sortBy.Direction == adapter.SortDesc
		sort.SliceStable(matched, func(i, j int) bool {
			c := compareValues(matched[i][field], matched[j][field])
			if desc {
				return c > 0
			}
			return c < 0
		})
	}

	if offset > 0 {
		if offset >= len(matched) {
			return []map[string]any{}, nil
		}
		matched = matched[offset:]
	}
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	if matched == nil {
		matched = []map[string]any{}
	}
	return matched, nil
}

// Update implements adapter.Backend.
func (s *Store) Update(ctx context.Context, model string, where []adapter.CleanedWhere, update map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("update")

	for _, row := range s.tables[model] {
		ok, err := matchWhere(row, where)
		if err != nil {
			return nil, err
		}
		if ok {
			for k, v := range update {
				row[k] = v
			}
			return cloneRow(row), nil
		}
	}
	return nil, nil
}

// UpdateMany implements adapter.Backend.
func (s *Store) UpdateMany(ctx context.Context, model string, where []adapter.CleanedWhere, update map[string]any) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("updateMany")

	n := 0
	for _, row := range s.tables[model] {
		ok, err := matchWhere(row, where)
		if err != nil {
			return 0, err
		}
		if ok {
			for k, v := range update {
				row[k] = v
			}
			n++
		}
	}
	return n, nil
}

// Delete implements adapter.Backend. Deleting a row that does not exist is a
// no-op.
func (s *Store) Delete(ctx context.Context, model string, where []adapter.CleanedWhere) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("delete")

	rows := s.tables[model]
	for i, row := range rows {
		ok, err := matchWhere(row, where)
		if err != nil {
			return err
		}
		if ok {
			s.tables[model] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return nil
}

// DeleteMany implements adapter.Backend.
func (s *Store) DeleteMany(ctx context.Context, model string, where []adapter.CleanedWhere) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("deleteMany")

	var kept []map[string]any
	n := 0
	for _, row := range s.tables[model] {
		ok, err := matchWhere(row, where)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
			continue
		}
		kept = append(kept, row)
	}
	s.tables[model] = kept
	return n, nil
}

// Count implements adapter.Backend.
func (s *Store) Count(ctx context.Context, model string, where []adapter.CleanedWhere) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.record("count")

	n := 0
	for _, row := range s.tables[model] {
		ok, err := matchWhere(row, where)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// Transaction implements adapter.Transactor with a snapshot of every table:
// an error from fn rolls the whole store back. Writes from other goroutines
// made during fn are rolled back too, which is acceptable for a test double.
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	snapshot := make(map[string][]map[string]any, len(s.tables))
	for model, rows := range s.tables {
		cloned := make([]map[string]any, len(rows))
		for i, row := range rows {
			cloned[i] = cloneRow(row)
		}
		snapshot[model] = cloned
	}
	nextID := make(map[string]int64, len(s.nextID))
	for k, v := range s.nextID {
		nextID[k] = v
	}
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.tables = snapshot
		s.nextID = nextID
		s.mu.Unlock()
		return err
	}
	return nil
}

func cloneRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// matchWhere evaluates the two-level grouping: every AND condition must hold
// and, when any OR conditions exist, at least one of them must hold.
func matchWhere(row map[string]any, where []adapter.CleanedWhere) (bool, error) {
	orPresent, orOK := false, false
	for _, w := range where {
		m, err := matchCondition(row, w)
		if err != nil {
			return false, err
		}
		if w.Connector == adapter.ConnectorOr {
			orPresent = true
			orOK = orOK || m
			continue
		}
		if !m {
			return false, nil
		}
	}
	if orPresent {
		return orOK, nil
	}
	return true, nil
}

func matchCondition(row map[string]any, w adapter.CleanedWhere) (bool, error) {
	have := row[w.Field]
	switch w.Operator {
	case adapter.OpEq:
		return equalValues(have, w.Value), nil
	case adapter.OpNe:
		return !equalValues(have, w.Value), nil
	case adapter.OpLt:
		return compareValues(have, w.Value) < 0, nil
	case adapter.OpLte:
		return compareValues(have, w.Value) <= 0, nil
	case adapter.OpGt:
		return compareValues(have, w.Value) > 0, nil
	case adapter.OpGte:
		return compareValues(have, w.Value) >= 0, nil
	case adapter.OpIn:
		return containsValue(w.Value, have), nil
	case adapter.OpNotIn:
		return !containsValue(w.Value, have), nil
	case adapter.OpContains:
		return strings.Contains(asString(have), asString(w.Value)), nil
	case adapter.OpStartsWith:
		return strings.HasPrefix(asString(have), asString(w.Value)), nil
	case adapter.OpEndsWith:
		return strings.HasSuffix(asString(have), asString(w.Value)), nil
	}
	return false, fmt.Errorf("memory backend: unknown operator %q", w.Operator)
}

func containsValue(list any, value any) bool {
	switch items := list.(type) {
	case []any:
		for _, item := range items {
			if equalValues(item, value) {
				return true
			}
		}
	case []string:
		for _, item := range items {
			if equalValues(item, value) {
				return true
			}
		}
	case []int:
		for _, item := range items {
			if equalValues(item, value) {
				return true
			}
		}
	case []int64:
		for _, item := range items {
			if equalValues(item, value) {
				return true
			}
		}
	}
	return false
}

func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
		return false
	}
	if at, aok := a.(time.Time); aok {
		if bt, bok := b.(time.Time); bok {
			return at.Equal(bt)
		}
		return false
	}
	return a == b
}

// compareValues orders two values of a loosely shared type. Incomparable
// pairs order as equal, which keeps sorting stable instead of panicking.
func compareValues(a, b any) int {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	if at, aok := a.(time.Time); aok {
		if bt, bok := b.(time.Time); bok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			}
			return 0
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs)
	}
	return 0
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
