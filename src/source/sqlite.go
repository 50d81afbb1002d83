package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/relgraph/relgraph/src/migrate"
)

func (s *SQLSource) sqliteTableNames(ctx context.Context) ([]string, error) {
	const query = `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	return s.scanStrings(ctx, query)
}

func (s *SQLSource) sqliteDescribe(ctx context.Context, t *migrate.Table) error {
	rows, err := s.db.QueryContext(ctx, "SELECT name, type, `notnull`, pk FROM pragma_table_info(?) ORDER BY cid", t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	// pk is 1-based position within the primary key, 0 for non-key columns
	type pkCol struct {
		name string
		pos  int
	}

	var pks []pkCol

	for rows.Next() {
		var (
			name, declared string
			notNull, pk    int
		)

		if err := rows.Scan(&name, &declared, &notNull, &pk); err != nil {
			return err
		}

		t.Columns = append(t.Columns, migrate.Column{
			Name:     name,
			Kind:     normalizeKind(declared),
			Declared: declared,
			Nullable: notNull == 0,
		})

		if pk > 0 {
			pks = append(pks, pkCol{name: name, pos: pk})
		}
	}

	if err := rows.Err(); err != nil {
		return err
	}

	for i := 1; i <= len(pks); i++ {
		for _, c := range pks {
			if c.pos == i {
				t.PrimaryKeys = append(t.PrimaryKeys, c.name)
			}
		}
	}

	return nil
}

func (s *SQLSource) sqliteForeignKeys(ctx context.Context, table string) ([]migrate.ForeignKey, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, seq, `table`, `from`, `to` FROM pragma_foreign_key_list(?) ORDER BY id, seq", table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	first := make(map[int]migrate.ForeignKey)
	var order []int

	for rows.Next() {
		var (
			id, seq   int
			refTable  string
			from      string
			to        sql.NullString
		)

		if err := rows.Scan(&id, &seq, &refTable, &from, &to); err != nil {
			return nil, err
		}

		if counts[id] == 0 {
			fk := migrate.ForeignKey{
				Table:     table,
				Column:    from,
				RefTable:  refTable,
				RefColumn: to.String,
			}
			first[id] = fk
			order = append(order, id)
		}

		counts[id]++
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var fks []migrate.ForeignKey

	for _, id := range order {
		if counts[id] != 1 {
			// composite foreign key, cannot become a single-identifier edge
			continue
		}

		fk := first[id]

		// an implicit reference ("REFERENCES parent") leaves the target
		// column empty; resolve it to the parent's primary key
		if fk.RefColumn == "" {
			pk, err := s.sqliteSinglePK(ctx, fk.RefTable)
			if err != nil {
				return nil, err
			}

			if pk == "" {
				continue
			}

			fk.RefColumn = pk
		}

		fks = append(fks, fk)
	}

	return fks, nil
}

func (s *SQLSource) sqliteSinglePK(ctx context.Context, table string) (string, error) {
	pks, err := s.scanStrings(ctx,
		"SELECT name FROM pragma_table_info(?) WHERE pk > 0 ORDER BY pk", table,
	)
	if err != nil {
		return "", fmt.Errorf("failed to resolve primary key of %q: %w", table, err)
	}

	if len(pks) != 1 {
		return "", nil
	}

	return pks[0], nil
}
