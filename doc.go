/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

/*
Package adapterkit provides a backend-agnostic data-access layer: one logical
schema, one operation contract, and interchangeable storage backends behind
it.

An application declares its models once, constructs an adapter over the
backend it deploys against, and issues the same eight operations everywhere:

	a, err := adapter.New(sqliteStore, adapter.Config{Schema: appSchema})
	if err != nil {
		...
	}

	user, err := a.Create(ctx, "user", map[string]any{"email": "a@b.com"})
	found, err := a.FindOne(ctx, "user", []adapter.Where{{Field: "email", Value: "a@b.com"}})

The adapter layer owns everything generic: model and field name resolution,
identifier policy, value coercion for backends without native booleans,
dates or json, where-clause normalization, lifecycle hooks and debug
tracing. Concrete backends (backends/sqlite, backends/mongodb, backends/ddb,
backends/memory) implement only the raw primitives.

Typed access is available on top of the map-based contract:

	user, err := adapterkit.Decode[User](found)

Multiple adapters can be held under a Manager when an application spans
several backends.
*/
package adapterkit
