/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package adapter

import (
	"context"
)

type decisionKind int

const (
	decisionContinue decisionKind = iota
	decisionVeto
	decisionReplace
)

// Decision is the explicit result of a before-hook: continue with the working
// data, veto the whole operation, or replace the working data.
type Decision struct {
	kind decisionKind
	data map[string]any
}

// Continue lets the operation proceed with the current working data.
func Continue() Decision {
	return Decision{kind: decisionContinue}
}

// Veto short-circuits the operation. The backend primitive is never invoked
// and the call resolves to a nil result. A veto is not an error.
func Veto() Decision {
	return Decision{kind: decisionVeto}
}

// Replace substitutes the working data for the remainder of the pipeline.
func Replace(data map[string]any) Decision {
	return Decision{kind: decisionReplace, data: data}
}

// BeforeHook runs before a mutating primitive. For create and update it
// receives the logical (pre-transform) working data; for delete it receives
// the prefetched target entity, which may be nil when the prefetch failed.
type BeforeHook func(ctx context.Context, model string, data map[string]any) (Decision, error)

// AfterHook runs after a successful write, in registration order. It observes
// the result but cannot veto; an error aborts the remaining after-hooks and
// surfaces to the caller.
type AfterHook func(ctx context.Context, model string, result map[string]any) error

// Hooks wires lifecycle hooks onto the three mutating operations. The *Many
// variants share the same hook lists as their singular counterparts.
type Hooks struct {
	BeforeCreate []BeforeHook
	AfterCreate  []AfterHook
	BeforeUpdate []BeforeHook
	AfterUpdate  []AfterHook
	BeforeDelete []BeforeHook
	AfterDelete  []AfterHook
}

// SideChannel redirects a write to a secondary store, e.g. a write-through
// session cache. When supplied on a call it always runs; the primary backend
// write runs only when runPrimary is true. A non-nil row substitutes the
// operation's result when the primary write is skipped.
type SideChannel func(ctx context.Context, model string, data map[string]any) (row map[string]any, runPrimary bool, err error)

// runBefore executes before-hooks in registration order. The returned bool is
// true when a hook vetoed the operation.
func (a *Adapter) runBefore(ctx context.Context, hooks []BeforeHook, model string, data map[string]any) (map[string]any, bool, error) {
	working := data
	for _, h := range hooks {
		d, err := h(ctx, model, working)
		if err != nil {
			return nil, false, err
		}
		switch d.kind {
		case decisionVeto:
			return nil, true, nil
		case decisionReplace:
			working = d.data
		}
	}
	return working, false, nil
}

func (a *Adapter) runAfter(ctx context.Context, hooks []AfterHook, model string, result map[string]any) error {
	for _, h := range hooks {
		if err := h(ctx, model, result); err != nil {
			return err
		}
	}
	return nil
}
