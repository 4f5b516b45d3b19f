/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlite

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/suparena/adapterkit/schema"
)

// TableDDL derives CREATE TABLE (and supporting index) statements from a
// logical schema, one table per model in sorted model order. Column names
// follow the runtime storage mapping, so a generated table is exactly what
// the Store reads and writes.
func TableDDL(s schema.Schema, opts schema.Options) ([]string, error) {
	reg := schema.NewRegistry(s, opts)

	models := make([]string, 0, len(s))
	for key := range s {
		models = append(models, key)
	}
	sort.Strings(models)

	var stmts []string
	for _, key := range models {
		table, err := reg.ModelName(key)
		if err != nil {
			return nil, err
		}

		fields := s[key].Fields
		cols := make([]string, 0, len(fields))
		for f := range fields {
			cols = append(cols, f)
		}
		sort.Strings(cols)

		defs := []string{idColumnDDL(opts)}
		var indexes []string
		for _, f := range cols {
			attr := fields[f]
			col := f
			if attr.FieldName != "" {
				col = attr.FieldName
			}

			def := quoteIdent(col) + " " + columnType(attr.Type)
			if attr.Required {
				def += " NOT NULL"
			}
			if attr.Unique {
				def += " UNIQUE"
			}
			if attr.References != nil {
				refTable, err := reg.ModelName(attr.References.Model)
				if err != nil {
					return nil, err
				}
				refCol, err := reg.FieldName(attr.References.Model, attr.References.Field)
				if err != nil {
					return nil, err
				}
				def += fmt.Sprintf(" REFERENCES %s(%s)", quoteIdent(refTable), quoteIdent(refCol))
				indexes = append(indexes, fmt.Sprintf(
					"CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
					quoteIdent("idx_"+strcase.ToSnake(table)+"_"+strcase.ToSnake(col)),
					quoteIdent(table), quoteIdent(col)))
			}
			defs = append(defs, def)
		}

		stmts = append(stmts, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
			quoteIdent(table), strings.Join(defs, ", ")))
		stmts = append(stmts, indexes...)
	}
	return stmts, nil
}

// CreateTables applies the derived DDL to the store's database.
func (s *Store) CreateTables(ctx context.Context, sc schema.Schema, opts schema.Options) error {
	stmts, err := TableDDL(sc, opts)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ddl statement failed: %w", err)
		}
	}
	return nil
}

func idColumnDDL(opts schema.Options) string {
	if opts.NumericIDs {
		return `"id" INTEGER PRIMARY KEY AUTOINCREMENT`
	}
	return `"id" TEXT PRIMARY KEY`
}

// columnType maps a logical field type to its SQLite storage class. Booleans,
// dates and json land in coerced form, matching the store's capability
// descriptor.
func columnType(t schema.FieldType) string {
	switch t {
	case schema.TypeNumber:
		return "NUMERIC"
	case schema.TypeBoolean:
		return "INTEGER"
	default:
		return "TEXT"
	}
}
