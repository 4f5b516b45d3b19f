/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package adapter

import (
	"context"
)

// Transaction runs fn inside an atomic scope when the backend supports one.
// The backend threads its transaction handle through the context passed to
// fn, so every adapter call made with that context joins the same
// transaction; callers outside the scope observe either the fully-committed
// or fully-absent result.
//
// Backends without transaction support run fn directly: multi-step atomicity
// is a backend capability, not something the generic layer can conjure.
func (a *Adapter) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx, ok := a.backend.(Transactor); ok {
		return tx.Transaction(ctx, fn)
	}
	return fn(ctx)
}
