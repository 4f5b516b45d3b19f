/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package ddb provides the DynamoDB backend. Tables are one-per-model with a
// string "id" partition key; arbitrary where clauses compile to filter
// expressions evaluated over paginated scans.
package ddb
