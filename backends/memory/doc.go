/*
Package memory provides an in-memory implementation of adapter.Backend.

It serves two roles: a real zero-dependency backend for tests and small
tools, and the conformance test double for the generic layer. Rows are kept
in insertion order per model; the full operator set is evaluated, limit,
offset and sorting are honored, and Transaction rolls back every table on
error via a snapshot.

The store reports support for every capability. To exercise the transform
pipeline's coercions against it, override Capabilities in the adapter
config.
*/
package memory
