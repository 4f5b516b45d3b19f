/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package adapter

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDebugCaptureRecordsStepNumberedEntries(t *testing.T) {
	capture := NewDebugCapture()
	a, backend := newTestAdapter(t, Capabilities{Booleans: true, Dates: true, JSON: true}, Config{Debug: capture})
	backend.findOneRow = map[string]any{"id": "u1", "email": "a@b.com"}
	ctx := context.Background()

	if _, err := a.Create(ctx, "user", map[string]any{"email": "a@b.com"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := a.FindOne(ctx, "user", nil); err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}

	entries := capture.Entries()
	if len(entries) != 5+4 {
		t.Fatalf("Expected 9 entries (5 create + 4 findOne), got %d", len(entries))
	}

	for i, e := range entries[:5] {
		if e.Method != MethodCreate {
			t.Errorf("entry %d: expected create, got %s", i, e.Method)
		}
		if e.Call != 1 {
			t.Errorf("entry %d: expected call 1, got %d", i, e.Call)
		}
		if e.Step != i+1 || e.Steps != 5 {
			t.Errorf("entry %d: expected step %d/5, got %d/%d", i, i+1, e.Step, e.Steps)
		}
	}
	for i, e := range entries[5:] {
		if e.Method != MethodFindOne || e.Call != 2 {
			t.Errorf("findOne entry %d: got method %s call %d", i, e.Method, e.Call)
		}
	}
}

func TestDebugCaptureResetAndReplay(t *testing.T) {
	capture := NewDebugCapture()
	a, _ := newTestAdapter(t, Capabilities{Booleans: true, Dates: true, JSON: true}, Config{Debug: capture})

	if _, err := a.Count(context.Background(), "user", nil); err != nil {
		t.Fatalf("Count failed: %v", err)
	}

	var replayed []string
	capture.Replay(func(format string, args ...any) {
		replayed = append(replayed, args[0].(string))
	})
	if len(replayed) != 3 {
		t.Fatalf("Expected 3 replayed lines, got %d", len(replayed))
	}
	if !strings.Contains(replayed[0], "[count #1 1/3]") {
		t.Errorf("Unexpected replay line: %q", replayed[0])
	}

	capture.Reset()
	if len(capture.Entries()) != 0 {
		t.Error("Expected no entries after Reset")
	}
}

func TestDebugMethodsGatesPerMethod(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	a, _ := newTestAdapter(t, Capabilities{Booleans: true, Dates: true, JSON: true}, Config{
		Debug:  DebugMethods{Create: true},
		Logger: &logger,
	})
	ctx := context.Background()

	if _, err := a.Create(ctx, "user", map[string]any{"email": "a@b.com"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := a.FindOne(ctx, "user", nil); err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"method":"create"`) {
		t.Error("Expected create trace in log output")
	}
	if strings.Contains(out, `"method":"findOne"`) {
		t.Error("findOne tracing should be gated off")
	}
}

func TestDebugOffEmitsNothing(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	a, _ := newTestAdapter(t, Capabilities{Booleans: true, Dates: true, JSON: true}, Config{
		Debug:  DebugOff{},
		Logger: &logger,
	})

	if _, err := a.FindMany(context.Background(), "user", nil); err != nil {
		t.Fatalf("FindMany failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected no log output, got %q", buf.String())
	}
}
