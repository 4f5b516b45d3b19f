/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package sqlite provides the relational backend over database/sql and the
// mattn sqlite3 driver, including schema-derived DDL generation and
// context-threaded transactions.
package sqlite
