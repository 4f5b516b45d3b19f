/*
Package adapter is the generic data-access layer: a fixed set of entity
operations (create, read, update, delete, count and their bulk variants)
running uniformly over heterogeneous storage backends.

An Adapter wraps a Backend — the eight raw primitives a concrete driver
implements — and owns everything generic around them:

  - name resolution against the logical schema (custom storage names,
    pluralization, field renames)
  - the bidirectional transform pipeline, parameterized by the backend's
    Capabilities so JSON, date and boolean values are coerced only when the
    backend lacks native support
  - the identifier policy: pluggable generation, numeric/autoincrement mode
    (validated fatally at construction), and the invariant that ids are
    always strings at the public boundary
  - where-clause normalization, including join-qualified "model.field"
    references and id value coercion
  - lifecycle hooks on the mutating operations, with explicit
    Continue/Veto/Replace decisions and optional side-channel writes
  - step-numbered debug tracing for adapter-conformance work

Construction:

	backend := memory.New()
	a, err := adapter.New(backend, adapter.Config{
	    Schema:    s,
	    UsePlural: true,
	})

Where clauses are ordered condition lists folded into two groups: all AND
conditions combine into one group and all OR conditions into a second, then
the groups combine. Arbitrary boolean nesting is not supported.
*/
package adapter
