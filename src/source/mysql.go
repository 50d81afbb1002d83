package source

import (
	"context"

	"github.com/relgraph/relgraph/src/migrate"
)

func (s *SQLSource) mysqlTableNames(ctx context.Context, schema string) ([]string, error) {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ?
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	return s.scanStrings(ctx, query, schema)
}

func (s *SQLSource) mysqlDescribe(ctx context.Context, t *migrate.Table) error {
	const colQuery = `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
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
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ? AND table_name = ?
		AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position
	`

	t.PrimaryKeys, err = s.scanStrings(ctx, pkQuery, t.Schema, t.Name)

	return err
}

func (s *SQLSource) mysqlForeignKeys(ctx context.Context, schema, table string) ([]migrate.ForeignKey, error) {
	const query = `
		SELECT constraint_name, column_name, referenced_table_name, referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ? AND table_name = ?
		AND referenced_table_name IS NOT NULL
		ORDER BY constraint_name, ordinal_position
	`

	rows, err := s.db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	first := make(map[string]migrate.ForeignKey)
	var order []string

	for rows.Next() {
		var name string
		var fk migrate.ForeignKey

		fk.Table = table

		if err := rows.Scan(&name, &fk.Column, &fk.RefTable, &fk.RefColumn); err != nil {
			return nil, err
		}

		if counts[name] == 0 {
			first[name] = fk
			order = append(order, name)
		}

		counts[name]++
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var fks []migrate.ForeignKey

	for _, name := range order {
		if counts[name] != 1 {
			// composite foreign key, cannot become a single-identifier edge
			continue
		}

		fks = append(fks, first[name])
	}

	return fks, nil
}
