/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package adapter

import (
	"context"

	"github.com/suparena/adapterkit/schema"
)

// fakeBackend records primitive invocations and replays canned rows. The
// richer conformance suite lives in adapter_test.go against the memory
// backend; this fake exists for internal pipeline tests.
type fakeBackend struct {
	id    string
	caps  Capabilities
	calls map[string]int

	lastModel  string
	lastCreate map[string]any
	lastWhere  []CleanedWhere
	lastUpdate map[string]any

	findOneRow  map[string]any
	findManyRow []map[string]any
	updateRow   map[string]any
	countResult int
}

func newFakeBackend(caps Capabilities) *fakeBackend {
	return &fakeBackend{id: "fake", caps: caps, calls: make(map[string]int)}
}

func (f *fakeBackend) ID() string                 { return f.id }
func (f *fakeBackend) Capabilities() Capabilities { return f.caps }

func (f *fakeBackend) Create(ctx context.Context, model string, data map[string]any) (map[string]any, error) {
	f.calls["create"]++
	f.lastModel, f.lastCreate = model, data
	return data, nil
}

func (f *fakeBackend) FindOne(ctx context.Context, model string, where []CleanedWhere) (map[string]any, error) {
	f.calls["findOne"]++
	f.lastModel, f.lastWhere = model, where
	return f.findOneRow, nil
}

func (f *fakeBackend) FindMany(ctx context.Context, model string, where []CleanedWhere, limit, offset int, sortBy *SortBy) ([]map[string]any, error) {
	f.calls["findMany"]++
	f.lastModel, f.lastWhere = model, where
	return f.findManyRow, nil
}

func (f *fakeBackend) Update(ctx context.Context, model string, where []CleanedWhere, update map[string]any) (map[string]any, error) {
	f.calls["update"]++
	f.lastModel, f.lastWhere, f.lastUpdate = model, where, update
	return f.updateRow, nil
}

func (f *fakeBackend) UpdateMany(ctx context.Context, model string, where []CleanedWhere, update map[string]any) (int, error) {
	f.calls["updateMany"]++
	f.lastModel, f.lastWhere, f.lastUpdate = model, where, update
	return f.countResult, nil
}

func (f *fakeBackend) Delete(ctx context.Context, model string, where []CleanedWhere) error {
	f.calls["delete"]++
	f.lastModel, f.lastWhere = model, where
	return nil
}

func (f *fakeBackend) DeleteMany(ctx context.Context, model string, where []CleanedWhere) (int, error) {
	f.calls["deleteMany"]++
	f.lastModel, f.lastWhere = model, where
	return f.countResult, nil
}

func (f *fakeBackend) Count(ctx context.Context, model string, where []CleanedWhere) (int, error) {
	f.calls["count"]++
	f.lastModel, f.lastWhere = model, where
	return f.countResult, nil
}

func testSchema() schema.Schema {
	return schema.Schema{
		"user": {Fields: map[string]schema.Field{
			"email":  {Type: schema.TypeString, Required: true, Unique: true},
			"active": {Type: schema.TypeBoolean},
			"meta":   {Type: schema.TypeJSON},
			"joined": {Type: schema.TypeDate},
		}},
		"session": {
			ModelName: "user_sessions",
			Fields: map[string]schema.Field{
				"userId": {Type: schema.TypeString, FieldName: "user_id", References: &schema.Reference{Model: "user", Field: "id"}},
				"token":  {Type: schema.TypeString, Unique: true},
			},
		},
	}
}
