/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package adapter

import (
	"fmt"
	"sync"
)

// Method names used for trace gating and entry keys.
const (
	MethodCreate     = "create"
	MethodFindOne    = "findOne"
	MethodFindMany   = "findMany"
	MethodUpdate     = "update"
	MethodUpdateMany = "updateMany"
	MethodDelete     = "delete"
	MethodDeleteMany = "deleteMany"
	MethodCount      = "count"
)

// TraceEntry is one structured step record emitted while an operation runs.
// Call increases monotonically per adapter instance; Step counts from 1 to
// Steps within the operation.
type TraceEntry struct {
	Method string
	Call   uint64
	Step   int
	Steps  int
	Detail string
}

func (e TraceEntry) String() string {
	return fmt.Sprintf("[%s #%d %d/%d] %s", e.Method, e.Call, e.Step, e.Steps, e.Detail)
}

// DebugLogs selects which methods emit trace entries and where they go. It is
// a closed variant: DebugOff, DebugAll, DebugMethods, or *DebugCapture.
type DebugLogs interface {
	enabled(method string) bool
	// capture stores the entry and reports true when the entry must not also
	// be emitted to the logger.
	capture(entry TraceEntry) bool
}

// DebugOff disables tracing. It is the zero configuration.
type DebugOff struct{}

func (DebugOff) enabled(string) bool     { return false }
func (DebugOff) capture(TraceEntry) bool { return false }

// DebugAll traces every method when true.
type DebugAll bool

func (d DebugAll) enabled(string) bool   { return bool(d) }
func (DebugAll) capture(TraceEntry) bool { return false }

// DebugMethods traces only the methods whose flag is set.
type DebugMethods struct {
	Create     bool
	FindOne    bool
	FindMany   bool
	Update     bool
	UpdateMany bool
	Delete     bool
	DeleteMany bool
	Count      bool
}

func (d DebugMethods) enabled(method string) bool {
	switch method {
	case MethodCreate:
		return d.Create
	case MethodFindOne:
		return d.FindOne
	case MethodFindMany:
		return d.FindMany
	case MethodUpdate:
		return d.Update
	case MethodUpdateMany:
		return d.UpdateMany
	case MethodDelete:
		return d.Delete
	case MethodDeleteMany:
		return d.DeleteMany
	case MethodCount:
		return d.Count
	}
	return false
}

func (DebugMethods) capture(TraceEntry) bool { return false }

// DebugCapture records entries in memory instead of emitting them, for test
// harnesses that replay the trace only when a test fails.
type DebugCapture struct {
	mu      sync.Mutex
	entries []TraceEntry
}

// NewDebugCapture creates an in-memory trace sink.
func NewDebugCapture() *DebugCapture {
	return &DebugCapture{}
}

func (d *DebugCapture) enabled(string) bool { return true }

func (d *DebugCapture) capture(entry TraceEntry) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append(d.entries, entry)
	return true
}

// Entries returns a copy of the captured trace.
func (d *DebugCapture) Entries() []TraceEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]TraceEntry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Reset discards the captured trace.
func (d *DebugCapture) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = nil
}

// Replay writes every captured entry through logf, typically t.Logf on a
// failed test.
func (d *DebugCapture) Replay(logf func(format string, args ...any)) {
	for _, e := range d.Entries() {
		logf("%s", e.String())
	}
}

// trace emits one step entry for the given call when the method is enabled.
func (a *Adapter) trace(method string, call uint64, step, steps int, detail string) {
	if a.debug == nil || !a.debug.enabled(method) {
		return
	}
	entry := TraceEntry{Method: method, Call: call, Step: step, Steps: steps, Detail: detail}
	if a.debug.capture(entry) {
		return
	}
	a.logger.Debug().
		Str("method", method).
		Uint64("call", call).
		Str("step", fmt.Sprintf("%d/%d", step, steps)).
		Msg(detail)
}
