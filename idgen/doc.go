/*
Package idgen provides identifier generators for the adapter layer.

The adapter skips generation entirely when numeric (autoincrement)
identifiers are in use or generation is disabled; otherwise it calls the
configured Generator, defaulting to UUID().
*/
package idgen
