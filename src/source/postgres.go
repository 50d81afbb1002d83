package source

import (
	"context"
	"fmt"

	"github.com/relgraph/relgraph/src/migrate"
)

func (s *SQLSource) postgresTableNames(ctx context.Context, schema string) ([]string, error) {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	return s.scanStrings(ctx, query, schema)
}

func (s *SQLSource) postgresDescribe(ctx context.Context, t *migrate.Table) error {
	const colQuery = `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := s.db.QueryContext(ctx, colQuery, t.Schema, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, declared, nullable string
		if err := rows.Scan(&name, &declared, &nullable); err != nil {
			return err
		}

		t.Columns = append(t.Columns, migrate.Column{
			Name:     name,
			Kind:     normalizeKind(declared),
			Declared: declared,
			Nullable: nullable == "YES",
		})
	}

	if err := rows.Err(); err != nil {
		return err
	}

	const pkQuery = `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY kcu.ordinal_position
	`

	t.PrimaryKeys, err = s.scanStrings(ctx, pkQuery, t.Schema, t.Name)

	return err
}

func (s *SQLSource) postgresForeignKeys(ctx context.Context, schema, table string) ([]migrate.ForeignKey, error) {
	const query = `
		SELECT tc.constraint_name, kcu.column_name, ccu.table_name, ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name
			AND tc.table_schema = ccu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY tc.constraint_name, kcu.ordinal_position
	`

	rows, err := s.db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type constraintRow struct {
		fk migrate.ForeignKey
		n  int
	}

	byName := make(map[string]*constraintRow)
	var order []string

	for rows.Next() {
		var name string
		var fk migrate.ForeignKey

		fk.Table = table

		if err := rows.Scan(&name, &fk.Column, &fk.RefTable, &fk.RefColumn); err != nil {
			return nil, err
		}

		if c, ok := byName[name]; ok {
			c.n++
			continue
		}

		byName[name] = &constraintRow{fk: fk, n: 1}
		order = append(order, name)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var fks []migrate.ForeignKey

	for _, name := range order {
		c := byName[name]
		if c.n != 1 {
			// composite foreign key, cannot become a single-identifier edge
			continue
		}

		fks = append(fks, c.fk)
	}

	return fks, nil
}

func (s *SQLSource) scanStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string

	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}

		out = append(out, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read result: %w", err)
	}

	return out, nil
}
