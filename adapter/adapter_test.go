/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package adapter_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/adapterkit/adapter"
	"github.com/suparena/adapterkit/backends/memory"
	"github.com/suparena/adapterkit/errors"
	"github.com/suparena/adapterkit/schema"
)

func userSchema() schema.Schema {
	return schema.Schema{
		"user": {Fields: map[string]schema.Field{
			"email": {Type: schema.TypeString, Required: true, Unique: true},
			"meta":  {Type: schema.TypeJSON},
			"joined": {Type: schema.TypeDate, DefaultFunc: func() any {
				return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
			}},
		}},
		"account": {Fields: map[string]schema.Field{
			"userId":   {Type: schema.TypeString, References: &schema.Reference{Model: "user", Field: "id"}},
			"provider": {Type: schema.TypeString},
		}},
	}
}

func newMemoryAdapter(t *testing.T, cfg adapter.Config) (*adapter.Adapter, *memory.Store) {
	t.Helper()
	store := memory.New()
	if cfg.Schema == nil {
		cfg.Schema = userSchema()
	}
	a, err := adapter.New(store, cfg)
	require.NoError(t, err)
	return a, store
}

func TestCreateThenFindOneRoundTrip(t *testing.T) {
	a, _ := newMemoryAdapter(t, adapter.Config{})
	ctx := context.Background()

	created, err := a.Create(ctx, "user", map[string]any{"email": "a@b.com"})
	require.NoError(t, err)
	require.NotNil(t, created)

	id, ok := created["id"].(string)
	require.True(t, ok, "id must be a string, got %T", created["id"])
	require.NotEmpty(t, id)
	assert.Equal(t, "a@b.com", created["email"])

	found, err := a.FindOne(ctx, "user", []adapter.Where{{Field: "id", Value: id}})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created["email"], found["email"])
	assert.Equal(t, id, found["id"])
}

func TestConcurrentCreatesYieldDistinctIDs(t *testing.T) {
	a, _ := newMemoryAdapter(t, adapter.Config{})
	ctx := context.Background()

	var mu sync.Mutex
	ids := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entity, err := a.Create(ctx, "user", map[string]any{"email": fmt.Sprintf("u%d@b.com", i)})
			if err != nil {
				t.Errorf("Create failed: %v", err)
				return
			}
			mu.Lock()
			ids[entity["id"].(string)] = true
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Len(t, ids, 16, "every create must yield a distinct id")
}

func TestCreateStripsCallerSuppliedID(t *testing.T) {
	a, _ := newMemoryAdapter(t, adapter.Config{})
	ctx := context.Background()

	entity, err := a.Create(ctx, "user", map[string]any{"id": "mine", "email": "a@b.com"})
	require.NoError(t, err)
	assert.NotEqual(t, "mine", entity["id"], "caller id must be discarded and regenerated")

	kept, err := a.Create(ctx, "user", map[string]any{"id": "mine", "email": "b@b.com"}, adapter.WithForceAllowID())
	require.NoError(t, err)
	assert.Equal(t, "mine", kept["id"])
}

func TestNumericIDPolicy(t *testing.T) {
	t.Run("unsupported backend fails at construction", func(t *testing.T) {
		store := memory.New()
		caps := store.Capabilities()
		caps.NumericIDs = false
		_, err := adapter.New(store, adapter.Config{Schema: userSchema(), UseNumericIDs: true, Capabilities: &caps})
		require.Error(t, err)
		assert.True(t, errors.IsConfiguration(err))
	})

	t.Run("generation skipped and id still serialized as string", func(t *testing.T) {
		a, _ := newMemoryAdapter(t, adapter.Config{UseNumericIDs: true})
		ctx := context.Background()

		first, err := a.Create(ctx, "user", map[string]any{"email": "a@b.com"})
		require.NoError(t, err)
		assert.Equal(t, "1", first["id"], "autoincrement id must surface as a string")

		second, err := a.Create(ctx, "user", map[string]any{"email": "b@b.com"})
		require.NoError(t, err)
		assert.Equal(t, "2", second["id"])

		found, err := a.FindOne(ctx, "user", []adapter.Where{{Field: "id", Value: "2"}})
		require.NoError(t, err)
		require.NotNil(t, found, "string id in where must coerce to the numeric storage form")
		assert.Equal(t, "b@b.com", found["email"])
	})
}

func TestJSONCoercionAtBackendBoundary(t *testing.T) {
	// Scenario: backend without native JSON stores meta as a string but the
	// caller always sees the structured value.
	store := memory.New()
	caps := store.Capabilities()
	caps.JSON = false
	a, err := adapter.New(store, adapter.Config{Schema: userSchema(), Capabilities: &caps})
	require.NoError(t, err)
	ctx := context.Background()

	created, err := a.Create(ctx, "user", map[string]any{
		"email": "a@b.com",
		"meta":  map[string]any{"a": float64(1)},
	})
	require.NoError(t, err)

	raw, err := store.FindOne(ctx, "user", nil)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, raw["meta"], "backend boundary must hold the serialized form")

	found, err := a.FindOne(ctx, "user", []adapter.Where{{Field: "id", Value: created["id"]}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, found["meta"])
}

func TestFindManySortAndPaging(t *testing.T) {
	a, _ := newMemoryAdapter(t, adapter.Config{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := a.Create(ctx, "user", map[string]any{"email": fmt.Sprintf("u%d@b.com", i)})
		require.NoError(t, err)
	}

	rows, err := a.FindMany(ctx, "user", nil,
		adapter.WithSort("email", adapter.SortDesc),
		adapter.WithLimit(2),
		adapter.WithOffset(1),
	)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "u3@b.com", rows[0]["email"])
	assert.Equal(t, "u2@b.com", rows[1]["email"])
}

func TestSelectProjection(t *testing.T) {
	a, _ := newMemoryAdapter(t, adapter.Config{})
	ctx := context.Background()

	created, err := a.Create(ctx, "user", map[string]any{"email": "a@b.com"}, adapter.WithSelect("email"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"email": "a@b.com"}, created)

	found, err := a.FindOne(ctx, "user", []adapter.Where{{Field: "email", Value: "a@b.com"}}, adapter.WithSelect("id"))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.NotEmpty(t, found["id"])
}

func TestUpdateManyAndDeleteManyZeroMatches(t *testing.T) {
	a, _ := newMemoryAdapter(t, adapter.Config{})
	ctx := context.Background()
	where := []adapter.Where{{Field: "email", Value: "ghost@b.com"}}

	n, err := a.UpdateMany(ctx, "user", where, map[string]any{"email": "x@b.com"})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = a.DeleteMany(ctx, "user", where)
	require.NoError(t, err)
	assert.Zero(t, n)

	rows, err := a.FindMany(ctx, "user", where)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUpdateReturnsTransformedEntity(t *testing.T) {
	a, _ := newMemoryAdapter(t, adapter.Config{})
	ctx := context.Background()

	created, err := a.Create(ctx, "user", map[string]any{"email": "a@b.com"})
	require.NoError(t, err)

	updated, err := a.Update(ctx, "user",
		[]adapter.Where{{Field: "id", Value: created["id"]}},
		map[string]any{"email": "new@b.com"})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "new@b.com", updated["email"])
	assert.Equal(t, created["id"], updated["id"])

	missing, err := a.Update(ctx, "user",
		[]adapter.Where{{Field: "id", Value: "nope"}},
		map[string]any{"email": "x@b.com"})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBeforeHookVetoNeverReachesBackend(t *testing.T) {
	veto := func(ctx context.Context, model string, data map[string]any) (adapter.Decision, error) {
		return adapter.Veto(), nil
	}
	a, store := newMemoryAdapter(t, adapter.Config{
		Hooks: adapter.Hooks{
			BeforeCreate: []adapter.BeforeHook{veto},
			BeforeUpdate: []adapter.BeforeHook{veto},
			BeforeDelete: []adapter.BeforeHook{veto},
		},
	})
	ctx := context.Background()

	entity, err := a.Create(ctx, "user", map[string]any{"email": "a@b.com"})
	require.NoError(t, err)
	assert.Nil(t, entity, "vetoed create resolves to nil")
	assert.Zero(t, store.Calls("create"), "backend primitive must never be invoked")

	updated, err := a.Update(ctx, "user", []adapter.Where{{Field: "email", Value: "a@b.com"}}, map[string]any{"email": "x"})
	require.NoError(t, err)
	assert.Nil(t, updated)
	assert.Zero(t, store.Calls("update"))

	require.NoError(t, a.Delete(ctx, "user", []adapter.Where{{Field: "email", Value: "a@b.com"}}))
	assert.Zero(t, store.Calls("delete"))
}

func TestBeforeHookReplaceSubstitutesData(t *testing.T) {
	a, _ := newMemoryAdapter(t, adapter.Config{
		Hooks: adapter.Hooks{
			BeforeCreate: []adapter.BeforeHook{
				func(ctx context.Context, model string, data map[string]any) (adapter.Decision, error) {
					replaced := make(map[string]any, len(data))
					for k, v := range data {
						replaced[k] = v
					}
					replaced["email"] = "replaced@b.com"
					return adapter.Replace(replaced), nil
				},
			},
		},
	})

	entity, err := a.Create(context.Background(), "user", map[string]any{"email": "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, "replaced@b.com", entity["email"])
}

func TestAfterHooksObserveResultInOrder(t *testing.T) {
	var order []string
	mk := func(name string) adapter.AfterHook {
		return func(ctx context.Context, model string, result map[string]any) error {
			order = append(order, name)
			return nil
		}
	}
	a, _ := newMemoryAdapter(t, adapter.Config{
		Hooks: adapter.Hooks{AfterCreate: []adapter.AfterHook{mk("first"), mk("second")}},
	})

	_, err := a.Create(context.Background(), "user", map[string]any{"email": "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestSideChannelSuppressesPrimaryWrite(t *testing.T) {
	a, store := newMemoryAdapter(t, adapter.Config{})
	ctx := context.Background()

	var sideWrites int
	side := func(ctx context.Context, model string, data map[string]any) (map[string]any, bool, error) {
		sideWrites++
		return data, false, nil
	}

	entity, err := a.Create(ctx, "user", map[string]any{"email": "cached@b.com"}, adapter.WithSideChannel(side))
	require.NoError(t, err)
	require.NotNil(t, entity)
	assert.Equal(t, 1, sideWrites)
	assert.Zero(t, store.Calls("create"), "primary write must be suppressed")

	// Opting back in runs the primary write too.
	both := func(ctx context.Context, model string, data map[string]any) (map[string]any, bool, error) {
		sideWrites++
		return nil, true, nil
	}
	_, err = a.Create(ctx, "user", map[string]any{"email": "both@b.com"}, adapter.WithSideChannel(both))
	require.NoError(t, err)
	assert.Equal(t, 2, sideWrites)
	assert.Equal(t, 1, store.Calls("create"))
}

func TestDeleteHooksSeePrefetchedTarget(t *testing.T) {
	var seen map[string]any
	a, _ := newMemoryAdapter(t, adapter.Config{
		Hooks: adapter.Hooks{
			BeforeDelete: []adapter.BeforeHook{
				func(ctx context.Context, model string, data map[string]any) (adapter.Decision, error) {
					seen = data
					return adapter.Continue(), nil
				},
			},
		},
	})
	ctx := context.Background()

	created, err := a.Create(ctx, "user", map[string]any{"email": "a@b.com"})
	require.NoError(t, err)

	require.NoError(t, a.Delete(ctx, "user", []adapter.Where{{Field: "id", Value: created["id"]}}))
	require.NotNil(t, seen, "before-delete hook must observe the prefetched entity")
	assert.Equal(t, "a@b.com", seen["email"])

	n, err := a.Count(ctx, "user", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDefaultsAppliedOnCreateOnly(t *testing.T) {
	a, _ := newMemoryAdapter(t, adapter.Config{})
	ctx := context.Background()

	created, err := a.Create(ctx, "user", map[string]any{"email": "a@b.com"})
	require.NoError(t, err)
	joined, ok := created["joined"].(time.Time)
	require.True(t, ok, "default joined must be set on create, got %T", created["joined"])
	assert.Equal(t, 2025, joined.Year())

	updated, err := a.Update(ctx, "user",
		[]adapter.Where{{Field: "id", Value: created["id"]}},
		map[string]any{"email": "b@b.com"})
	require.NoError(t, err)
	got, ok := updated["joined"].(time.Time)
	require.True(t, ok)
	assert.True(t, got.Equal(joined), "update must not reapply or clobber the default")
}

func TestTransactionAtomicity(t *testing.T) {
	a, _ := newMemoryAdapter(t, adapter.Config{})
	ctx := context.Background()

	err := a.Transaction(ctx, func(ctx context.Context) error {
		user, err := a.Create(ctx, "user", map[string]any{"email": "a@b.com"})
		if err != nil {
			return err
		}
		if _, err := a.Create(ctx, "account", map[string]any{"userId": user["id"], "provider": "github"}); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	users, err := a.Count(ctx, "user", nil)
	require.NoError(t, err)
	accounts, err := a.Count(ctx, "account", nil)
	require.NoError(t, err)
	assert.Zero(t, users, "aborted transaction must leave no users")
	assert.Zero(t, accounts, "aborted transaction must leave no accounts")
}

func TestAdapterIdentityAndOptionsEcho(t *testing.T) {
	a, _ := newMemoryAdapter(t, adapter.Config{UsePlural: true})

	assert.Equal(t, "memory", a.ID())
	opts := a.Options()
	assert.True(t, opts.UsePlural)
	require.NotNil(t, opts.Capabilities)
	assert.True(t, opts.Capabilities.JSON)
}
