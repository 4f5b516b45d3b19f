/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package idgen

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid"
)

// Generator produces a fresh identifier for an entity about to be created.
// The model name is passed so a single generator can vary its scheme per
// model if it wants to.
type Generator func(model string) string

// UUID returns random version-4 UUIDs. This is the default generator.
func UUID() Generator {
	return func(string) string {
		return uuid.NewString()
	}
}

var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(rand.Reader, 0)
)

// ULID returns lexicographically sortable identifiers, useful for backends
// where creation-ordered keys keep range scans cheap.
func ULID() Generator {
	return func(string) string {
		ulidMu.Lock()
		defer ulidMu.Unlock()
		return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
	}
}

// PerModel dispatches to a model-specific generator, falling back to the
// given default for models without one.
func PerModel(fallback Generator, byModel map[string]Generator) Generator {
	return func(model string) string {
		if g, ok := byModel[model]; ok {
			return g(model)
		}
		return fallback(model)
	}
}
