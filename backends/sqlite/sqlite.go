/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/suparena/adapterkit/adapter"
)

// Store is a relational Backend over database/sql with the mattn sqlite3
// driver. Booleans, dates and json are stored in coerced form (INTEGER and
// TEXT columns), so the store reports none of those capabilities and the
// transform pipeline does the conversion at the boundary.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a database at the given DSN. Foreign key
// enforcement is switched on per connection.
func Open(dsn string) (*Store, error) {
	if !strings.Contains(dsn, "_foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an already-opened handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle, mainly for schema management.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the underlying handle.
func (s *Store) Close() error { return s.db.Close() }

// ID implements adapter.Backend.
func (s *Store) ID() string { return "sqlite" }

// Capabilities implements adapter.Backend.
func (s *Store) Capabilities() adapter.Capabilities {
	return adapter.Capabilities{NumericIDs: true}
}

type txKey struct{}

// executor is satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// conn returns the transaction bound to ctx, or the plain handle.
func (s *Store) conn(ctx context.Context) executor {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

// Transaction implements adapter.Transactor. The transaction handle rides the
// context so nested adapter calls inside fn share it.
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (after: %w)", rbErr, err)
		}
		return err
	}
	return tx.Commit()
}

// Create implements adapter.Backend. The inserted row is read back by rowid
// so autoincrement ids and column defaults are reflected in the result.
func (s *Store) Create(ctx context.Context, model string, data map[string]any) (map[string]any, error) {
	cols := make([]string, 0, len(data))
	for col := range data {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	quoted := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		quoted[i] = quoteIdent(col)
		args[i] = data[col]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(model),
		strings.Join(quoted, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))

	res, err := s.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("insert into %s failed: %w", model, err)
	}
	rowid, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve inserted rowid: %w", err)
	}
	return s.rowByRowid(ctx, model, rowid)
}

// FindOne implements adapter.Backend.
func (s *Store) FindOne(ctx context.Context, model string, where []adapter.CleanedWhere) (map[string]any, error) {
	query, args, err := selectQuery(model, where, 1, 0, nil)
	if err != nil {
		return nil, err
	}
	rows, err := s.queryRows(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// FindMany implements adapter.Backend.
func (s *Store) FindMany(ctx context.Context, model string, where []adapter.CleanedWhere, limit, offset int, sortBy *adapter.SortBy) ([]map[string]any, error) {
	query, args, err := selectQuery(model, where, limit, offset, sortBy)
	if err != nil {
		return nil, err
	}
	return s.queryRows(ctx, query, args)
}

// Update implements adapter.Backend. The target row is pinned by rowid first
// so exactly one row changes and the updated row can be read back.
func (s *Store) Update(ctx context.Context, model string, where []adapter.CleanedWhere, update map[string]any) (map[string]any, error) {
	rowid, found, err := s.firstRowid(ctx, model, where)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	query, args := updateQuery(model, update, "rowid = ?")
	args = append(args, rowid)
	if _, err := s.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("update of %s failed: %w", model, err)
	}
	return s.rowByRowid(ctx, model, rowid)
}

// UpdateMany implements adapter.Backend.
func (s *Store) UpdateMany(ctx context.Context, model string, where []adapter.CleanedWhere, update map[string]any) (int, error) {
	frag, whereArgs, err := whereClause(where)
	if err != nil {
		return 0, err
	}
	query, args := updateQuery(model, update, frag)
	args = append(args, whereArgs...)
	res, err := s.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update of %s failed: %w", model, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Delete implements adapter.Backend. Deleting a missing row is a no-op.
func (s *Store) Delete(ctx context.Context, model string, where []adapter.CleanedWhere) error {
	rowid, found, err := s.firstRowid(ctx, model, where)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE rowid = ?", quoteIdent(model))
	if _, err := s.conn(ctx).ExecContext(ctx, query, rowid); err != nil {
		return fmt.Errorf("delete from %s failed: %w", model, err)
	}
	return nil
}

// DeleteMany implements adapter.Backend.
func (s *Store) DeleteMany(ctx context.Context, model string, where []adapter.CleanedWhere) (int, error) {
	frag, args, err := whereClause(where)
	if err != nil {
		return 0, err
	}
	query := "DELETE FROM " + quoteIdent(model)
	if frag != "" {
		query += " WHERE " + frag
	}
	res, err := s.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete from %s failed: %w", model, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Count implements adapter.Backend.
func (s *Store) Count(ctx context.Context, model string, where []adapter.CleanedWhere) (int, error) {
	frag, args, err := whereClause(where)
	if err != nil {
		return 0, err
	}
	query := "SELECT COUNT(*) FROM " + quoteIdent(model)
	if frag != "" {
		query += " WHERE " + frag
	}

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("count on %s failed: %w", model, err)
	}
	defer rows.Close()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, err
		}
	}
	return n, rows.Err()
}

func updateQuery(model string, update map[string]any, whereFrag string) (string, []any) {
	cols := make([]string, 0, len(update))
	for col := range update {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		sets[i] = quoteIdent(col) + " = ?"
		args[i] = update[col]
	}

	query := "UPDATE " + quoteIdent(model) + " SET " + strings.Join(sets, ", ")
	if whereFrag != "" {
		query += " WHERE " + whereFrag
	}
	return query, args
}

func (s *Store) firstRowid(ctx context.Context, model string, where []adapter.CleanedWhere) (int64, bool, error) {
	frag, args, err := whereClause(where)
	if err != nil {
		return 0, false, err
	}
	query := "SELECT rowid FROM " + quoteIdent(model)
	if frag != "" {
		query += " WHERE " + frag
	}
	query += " LIMIT 1"

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return 0, false, fmt.Errorf("lookup on %s failed: %w", model, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return 0, false, rows.Err()
	}
	var rowid int64
	if err := rows.Scan(&rowid); err != nil {
		return 0, false, err
	}
	return rowid, true, nil
}

func (s *Store) rowByRowid(ctx context.Context, model string, rowid int64) (map[string]any, error) {
	query := "SELECT * FROM " + quoteIdent(model) + " WHERE rowid = ?"
	rows, err := s.queryRows(ctx, query, []any{rowid})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// queryRows runs a SELECT and materializes every row as a map. TEXT columns
// come back from the driver as []byte and are normalized to string.
func (s *Store) queryRows(ctx context.Context, query string, args []any) ([]map[string]any, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
