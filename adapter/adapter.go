/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package adapter

import (
	"context"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/suparena/adapterkit/errors"
	"github.com/suparena/adapterkit/idgen"
	"github.com/suparena/adapterkit/schema"
)

// Adapter wraps one backend-specific driver into the public entity-operation
// contract: name resolution, the transform pipeline, the id policy, lifecycle
// hooks and debug tracing all live here, so concrete backends only implement
// the eight raw primitives.
//
// An Adapter is built once and is safe for concurrent use; all per-call state
// is call-scoped.
type Adapter struct {
	backend Backend
	reg     *schema.Registry
	cfg     Config
	caps    Capabilities
	tr      *transformer
	gen     idgen.Generator
	debug   DebugLogs
	logger  zerolog.Logger
	calls   atomic.Uint64
}

// New constructs an adapter over the given backend. Requesting numeric ids
// from a backend that does not support them is a fatal configuration error:
// it fails here, once, and is never retried per call.
func New(backend Backend, cfg Config) (*Adapter, error) {
	caps := backend.Capabilities()
	if cfg.Capabilities != nil {
		caps = *cfg.Capabilities
	}
	if cfg.UseNumericIDs && !caps.NumericIDs {
		return nil, errors.NewConfigurationError(backend.ID(), "numeric ids requested but backend does not support them")
	}

	reg := schema.NewRegistry(cfg.Schema, schema.Options{
		UsePlural:  cfg.UsePlural,
		NumericIDs: cfg.UseNumericIDs,
	})

	gen := cfg.GenerateID
	if gen == nil {
		gen = idgen.UUID()
	}
	if len(cfg.GenerateIDByModel) > 0 {
		gen = idgen.PerModel(gen, cfg.GenerateIDByModel)
	}

	debug := cfg.Debug
	if debug == nil {
		debug = DebugOff{}
	}

	var logger zerolog.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	} else {
		logger = zerolog.New(os.Stderr).With().Timestamp().Str("adapter", backend.ID()).Logger()
	}

	a := &Adapter{
		backend: backend,
		reg:     reg,
		cfg:     cfg,
		caps:    caps,
		gen:     gen,
		debug:   debug,
		logger:  logger,
	}
	a.tr = &transformer{reg: reg, caps: caps, cfg: &a.cfg}
	return a, nil
}

// ID names the concrete backend implementation.
func (a *Adapter) ID() string {
	return a.backend.ID()
}

// Options echoes the merged configuration the adapter runs with.
func (a *Adapter) Options() Config {
	cfg := a.cfg
	cfg.Capabilities = &a.caps
	if cfg.Debug == nil {
		cfg.Debug = a.debug
	}
	return cfg
}

// Registry exposes the schema registry the adapter resolves against.
func (a *Adapter) Registry() *schema.Registry {
	return a.reg
}

// Create inserts one entity. A caller-supplied id is stripped (with a warning)
// unless WithForceAllowID is given; otherwise a fresh id is generated, except
// under numeric/autoincrement policy where generation is skipped entirely.
// The returned entity has been through the output transform and carries its
// id serialized as a string.
func (a *Adapter) Create(ctx context.Context, model string, data map[string]any, opts ...OpOption) (map[string]any, error) {
	o := applyOpts(opts)
	call := a.calls.Add(1)
	const steps = 5

	a.trace(MethodCreate, call, 1, steps, "resolve model "+model)
	storageModel, err := a.reg.ModelName(model)
	if err != nil {
		return nil, err
	}

	work := make(map[string]any, len(data)+1)
	for k, v := range data {
		work[k] = v
	}
	if _, ok := work[schema.IDField]; ok && !o.forceAllowID {
		delete(work, schema.IDField)
		a.logger.Warn().Str("model", model).Msg("caller-supplied id discarded; use WithForceAllowID to keep it")
	}
	if !a.cfg.DisableIDGeneration && !a.cfg.UseNumericIDs {
		if _, ok := work[schema.IDField]; !ok {
			work[schema.IDField] = a.gen(model)
		}
	}

	a.trace(MethodCreate, call, 2, steps, "run before-create hooks")
	work, vetoed, err := a.runBefore(ctx, a.cfg.Hooks.BeforeCreate, model, work)
	if err != nil {
		return nil, err
	}
	if vetoed {
		a.trace(MethodCreate, call, steps, steps, "vetoed by before-create hook")
		return nil, nil
	}

	a.trace(MethodCreate, call, 3, steps, "transform input")
	row, err := a.tr.input(model, work, true)
	if err != nil {
		return nil, err
	}

	runPrimary := true
	var result map[string]any
	if o.side != nil {
		sideRow, primary, err := o.side(ctx, model, work)
		if err != nil {
			return nil, err
		}
		runPrimary = primary
		if sideRow != nil {
			work = sideRow
		}
	}

	if runPrimary {
		a.trace(MethodCreate, call, 4, steps, "execute create on "+storageModel)
		raw, err := a.backend.Create(ctx, storageModel, row)
		if err != nil {
			return nil, err
		}
		a.trace(MethodCreate, call, 5, steps, "transform output")
		result, err = a.tr.output(model, raw, o.sel)
		if err != nil {
			return nil, err
		}
	} else {
		a.trace(MethodCreate, call, 5, steps, "write handled by side channel")
		result = project(work, o.sel)
	}

	if err := a.runAfter(ctx, a.cfg.Hooks.AfterCreate, model, result); err != nil {
		return nil, err
	}
	return result, nil
}

// FindOne returns the first entity matching where, or (nil, nil) when none
// does.
func (a *Adapter) FindOne(ctx context.Context, model string, where []Where, opts ...OpOption) (map[string]any, error) {
	o := applyOpts(opts)
	call := a.calls.Add(1)
	const steps = 4

	a.trace(MethodFindOne, call, 1, steps, "resolve model "+model)
	storageModel, err := a.reg.ModelName(model)
	if err != nil {
		return nil, err
	}

	a.trace(MethodFindOne, call, 2, steps, "normalize where clause")
	cw, err := a.CleanWhere(model, where)
	if err != nil {
		return nil, err
	}

	a.trace(MethodFindOne, call, 3, steps, "execute findOne on "+storageModel)
	raw, err := a.backend.FindOne(ctx, storageModel, cw)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	a.trace(MethodFindOne, call, 4, steps, "transform output")
	return a.tr.output(model, raw, o.sel)
}

// FindMany returns every entity matching where, honoring limit (default 100),
// offset and sort options.
func (a *Adapter) FindMany(ctx context.Context, model string, where []Where, opts ...OpOption) ([]map[string]any, error) {
	o := applyOpts(opts)
	call := a.calls.Add(1)
	const steps = 4

	a.trace(MethodFindMany, call, 1, steps, "resolve model "+model)
	storageModel, err := a.reg.ModelName(model)
	if err != nil {
		return nil, err
	}

	a.trace(MethodFindMany, call, 2, steps, "normalize where clause")
	cw, err := a.CleanWhere(model, where)
	if err != nil {
		return nil, err
	}

	sortBy := o.sortBy
	if sortBy != nil {
		field, err := a.reg.FieldName(model, sortBy.Field)
		if err != nil {
			return nil, err
		}
		sortBy = &SortBy{Field: field, Direction: sortBy.Direction}
	}

	a.trace(MethodFindMany, call, 3, steps, "execute findMany on "+storageModel)
	raws, err := a.backend.FindMany(ctx, storageModel, cw, o.limit, o.offset, sortBy)
	if err != nil {
		return nil, err
	}

	a.trace(MethodFindMany, call, 4, steps, "transform output")
	out := make([]map[string]any, 0, len(raws))
	for _, raw := range raws {
		entity, err := a.tr.output(model, raw, o.sel)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

// Update modifies the first entity matching where and returns it after the
// output transform, or (nil, nil) when nothing matched or a hook vetoed.
func (a *Adapter) Update(ctx context.Context, model string, where []Where, update map[string]any, opts ...OpOption) (map[string]any, error) {
	o := applyOpts(opts)
	call := a.calls.Add(1)
	const steps = 5

	a.trace(MethodUpdate, call, 1, steps, "resolve model "+model)
	storageModel, err := a.reg.ModelName(model)
	if err != nil {
		return nil, err
	}
	cw, err := a.CleanWhere(model, where)
	if err != nil {
		return nil, err
	}

	a.trace(MethodUpdate, call, 2, steps, "run before-update hooks")
	work, vetoed, err := a.runBefore(ctx, a.cfg.Hooks.BeforeUpdate, model, update)
	if err != nil {
		return nil, err
	}
	if vetoed {
		a.trace(MethodUpdate, call, steps, steps, "vetoed by before-update hook")
		return nil, nil
	}

	a.trace(MethodUpdate, call, 3, steps, "transform input")
	row, err := a.tr.input(model, work, false)
	if err != nil {
		return nil, err
	}

	runPrimary := true
	var result map[string]any
	if o.side != nil {
		sideRow, primary, err := o.side(ctx, model, work)
		if err != nil {
			return nil, err
		}
		runPrimary = primary
		if sideRow != nil {
			work = sideRow
		}
	}

	if runPrimary {
		a.trace(MethodUpdate, call, 4, steps, "execute update on "+storageModel)
		raw, err := a.backend.Update(ctx, storageModel, cw, row)
		if err != nil {
			return nil, err
		}
		a.trace(MethodUpdate, call, 5, steps, "transform output")
		result, err = a.tr.output(model, raw, o.sel)
		if err != nil {
			return nil, err
		}
	} else {
		a.trace(MethodUpdate, call, 5, steps, "write handled by side channel")
		result = project(work, o.sel)
	}

	if result != nil {
		if err := a.runAfter(ctx, a.cfg.Hooks.AfterUpdate, model, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// UpdateMany modifies every entity matching where and returns the number of
// rows touched. A where matching zero rows returns 0, never an error.
func (a *Adapter) UpdateMany(ctx context.Context, model string, where []Where, update map[string]any) (int, error) {
	call := a.calls.Add(1)
	const steps = 4

	a.trace(MethodUpdateMany, call, 1, steps, "resolve model "+model)
	storageModel, err := a.reg.ModelName(model)
	if err != nil {
		return 0, err
	}
	cw, err := a.CleanWhere(model, where)
	if err != nil {
		return 0, err
	}

	a.trace(MethodUpdateMany, call, 2, steps, "run before-update hooks")
	work, vetoed, err := a.runBefore(ctx, a.cfg.Hooks.BeforeUpdate, model, update)
	if err != nil {
		return 0, err
	}
	if vetoed {
		a.trace(MethodUpdateMany, call, steps, steps, "vetoed by before-update hook")
		return 0, nil
	}

	a.trace(MethodUpdateMany, call, 3, steps, "transform input")
	row, err := a.tr.input(model, work, false)
	if err != nil {
		return 0, err
	}

	a.trace(MethodUpdateMany, call, 4, steps, "execute updateMany on "+storageModel)
	n, err := a.backend.UpdateMany(ctx, storageModel, cw, row)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if err := a.runAfter(ctx, a.cfg.Hooks.AfterUpdate, model, nil); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Delete removes the first entity matching where. The target is fetched
// beforehand so delete hooks can observe it; a fetch failure is logged and
// swallowed, never blocking the deletion. A veto skips the deletion silently.
func (a *Adapter) Delete(ctx context.Context, model string, where []Where, opts ...OpOption) error {
	o := applyOpts(opts)
	call := a.calls.Add(1)
	const steps = 4

	a.trace(MethodDelete, call, 1, steps, "resolve model "+model)
	storageModel, err := a.reg.ModelName(model)
	if err != nil {
		return err
	}
	cw, err := a.CleanWhere(model, where)
	if err != nil {
		return err
	}

	a.trace(MethodDelete, call, 2, steps, "prefetch target and run before-delete hooks")
	target := a.fetchDeleteTarget(ctx, model, storageModel, cw)
	_, vetoed, err := a.runBefore(ctx, a.cfg.Hooks.BeforeDelete, model, target)
	if err != nil {
		return err
	}
	if vetoed {
		a.trace(MethodDelete, call, steps, steps, "vetoed by before-delete hook")
		return nil
	}

	if o.side != nil {
		_, runPrimary, err := o.side(ctx, model, target)
		if err != nil {
			return err
		}
		if !runPrimary {
			a.trace(MethodDelete, call, steps, steps, "write handled by side channel")
			return a.runAfter(ctx, a.cfg.Hooks.AfterDelete, model, target)
		}
	}

	a.trace(MethodDelete, call, 3, steps, "execute delete on "+storageModel)
	if err := a.backend.Delete(ctx, storageModel, cw); err != nil {
		return err
	}

	a.trace(MethodDelete, call, 4, steps, "run after-delete hooks")
	return a.runAfter(ctx, a.cfg.Hooks.AfterDelete, model, target)
}

// DeleteMany removes every entity matching where and returns how many went
// away. Targets are prefetched for hook context; a veto from any before-hook
// cancels the whole operation and returns 0.
func (a *Adapter) DeleteMany(ctx context.Context, model string, where []Where) (int, error) {
	call := a.calls.Add(1)
	const steps = 4

	a.trace(MethodDeleteMany, call, 1, steps, "resolve model "+model)
	storageModel, err := a.reg.ModelName(model)
	if err != nil {
		return 0, err
	}
	cw, err := a.CleanWhere(model, where)
	if err != nil {
		return 0, err
	}

	a.trace(MethodDeleteMany, call, 2, steps, "prefetch targets and run before-delete hooks")
	var targets []map[string]any
	raws, err := a.backend.FindMany(ctx, storageModel, cw, 0, 0, nil)
	if err != nil {
		a.logger.Warn().Err(err).Str("model", model).Msg("failed to fetch delete targets for hooks")
	} else {
		for _, raw := range raws {
			entity, terr := a.tr.output(model, raw, nil)
			if terr != nil {
				a.logger.Warn().Err(terr).Str("model", model).Msg("failed to transform delete target for hooks")
				continue
			}
			targets = append(targets, entity)
		}
	}
	for _, target := range targets {
		_, vetoed, err := a.runBefore(ctx, a.cfg.Hooks.BeforeDelete, model, target)
		if err != nil {
			return 0, err
		}
		if vetoed {
			a.trace(MethodDeleteMany, call, steps, steps, "vetoed by before-delete hook")
			return 0, nil
		}
	}

	a.trace(MethodDeleteMany, call, 3, steps, "execute deleteMany on "+storageModel)
	n, err := a.backend.DeleteMany(ctx, storageModel, cw)
	if err != nil {
		return 0, err
	}

	a.trace(MethodDeleteMany, call, 4, steps, "run after-delete hooks")
	for _, target := range targets {
		if err := a.runAfter(ctx, a.cfg.Hooks.AfterDelete, model, target); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Count returns the number of entities matching where.
func (a *Adapter) Count(ctx context.Context, model string, where []Where) (int, error) {
	call := a.calls.Add(1)
	const steps = 3

	a.trace(MethodCount, call, 1, steps, "resolve model "+model)
	storageModel, err := a.reg.ModelName(model)
	if err != nil {
		return 0, err
	}

	a.trace(MethodCount, call, 2, steps, "normalize where clause")
	cw, err := a.CleanWhere(model, where)
	if err != nil {
		return 0, err
	}

	a.trace(MethodCount, call, 3, steps, "execute count on "+storageModel)
	return a.backend.Count(ctx, storageModel, cw)
}

// fetchDeleteTarget loads the entity a delete is about to remove, for hook
// context only. Failures are logged and swallowed; deletion proceeds.
func (a *Adapter) fetchDeleteTarget(ctx context.Context, model, storageModel string, cw []CleanedWhere) map[string]any {
	raw, err := a.backend.FindOne(ctx, storageModel, cw)
	if err != nil {
		a.logger.Warn().Err(err).Str("model", model).Msg("failed to fetch delete target for hooks")
		return nil
	}
	if raw == nil {
		return nil
	}
	entity, err := a.tr.output(model, raw, nil)
	if err != nil {
		a.logger.Warn().Err(err).Str("model", model).Msg("failed to transform delete target for hooks")
		return nil
	}
	return entity
}

func project(data map[string]any, sel []string) map[string]any {
	if data == nil || len(sel) == 0 {
		return data
	}
	out := make(map[string]any, len(sel))
	for _, key := range sel {
		if v, ok := data[key]; ok {
			out[key] = v
		}
	}
	return out
}
