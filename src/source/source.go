// Package source reflects and reads the relational side of a migration over
// database/sql. Three dialects are supported: postgres (through pgx's stdlib
// driver), mysql and sqlite.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/relgraph/relgraph/src/migrate"
)

// Supported dialects.
const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite"
)

// driverNames maps a dialect to the database/sql driver registered for it.
var driverNames = map[string]string{
	Postgres: "pgx",
	MySQL:    "mysql",
	SQLite:   "sqlite",
}

// SQLSource implements migrate.Source over a *sql.DB.
type SQLSource struct {
	db      *sql.DB
	dialect string
}

var _ migrate.Source = (*SQLSource)(nil)

// Open connects to the relational source. The caller owns the returned
// source and must Close it.
func Open(dialect, dsn string) (*SQLSource, error) {
	driver, ok := driverNames[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s source: %w", dialect, err)
	}

	return &SQLSource{db: db, dialect: dialect}, nil
}

// NewSQLSource wraps an already opened *sql.DB.
func NewSQLSource(dialect string, db *sql.DB) *SQLSource {
	return &SQLSource{db: db, dialect: dialect}
}

// Ping probes the source with a trivial query. It is meant to run before any
// migration work so an unreachable source fails the run with nothing
// attempted.
func (s *SQLSource) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("failed to probe source: %w", err)
	}

	return nil
}

func (s *SQLSource) Close() error {
	return s.db.Close()
}

// ListTables implements migrate.Source.
func (s *SQLSource) ListTables(ctx context.Context, schema string) ([]migrate.Table, error) {
	var (
		names []string
		err   error
	)

	switch s.dialect {
	case SQLite:
		names, err = s.sqliteTableNames(ctx)
	case MySQL:
		names, err = s.mysqlTableNames(ctx, schema)
	default:
		names, err = s.postgresTableNames(ctx, schema)
	}

	if err != nil {
		return nil, err
	}

	tables := make([]migrate.Table, 0, len(names))

	for _, name := range names {
		t := migrate.Table{Schema: schema, Name: name}

		switch s.dialect {
		case SQLite:
			err = s.sqliteDescribe(ctx, &t)
		case MySQL:
			err = s.mysqlDescribe(ctx, &t)
		default:
			err = s.postgresDescribe(ctx, &t)
		}

		if err != nil {
			return nil, fmt.Errorf("failed to describe table %q: %w", name, err)
		}

		tables = append(tables, t)
	}

	return tables, nil
}

// ListForeignKeys implements migrate.Source. Composite (multi-column)
// foreign keys are dropped: they cannot map onto a single-identifier edge.
func (s *SQLSource) ListForeignKeys(ctx context.Context, schema, table string) ([]migrate.ForeignKey, error) {
	switch s.dialect {
	case SQLite:
		return s.sqliteForeignKeys(ctx, table)
	case MySQL:
		return s.mysqlForeignKeys(ctx, schema, table)
	default:
		return s.postgresForeignKeys(ctx, schema, table)
	}
}

// FetchRows implements migrate.Source: one bulk read of the whole table,
// columns in reflected order, decoded into tagged values.
func (s *SQLSource) FetchRows(ctx context.Context, table migrate.Table) ([][]migrate.Value, error) {
	cols := make([]string, 0, len(table.Columns))
	for _, c := range table.Columns {
		cols = append(cols, s.quote(c.Name))
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s",
		strings.Join(cols, ", "), s.qualify(table.Schema, table.Name),
	)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rows of %q: %w", table.Name, err)
	}
	defer rows.Close()

	var out [][]migrate.Value

	for rows.Next() {
		raw := make([]any, len(table.Columns))
		ptrs := make([]any, len(table.Columns))

		for i := range raw {
			ptrs[i] = &raw[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row of %q: %w", table.Name, err)
		}

		vals := make([]migrate.Value, len(table.Columns))

		for i, col := range table.Columns {
			vals[i], err = decodeValue(raw[i], col)
			if err != nil {
				return nil, fmt.Errorf("column %q of %q: %w", col.Name, table.Name, err)
			}
		}

		out = append(out, vals)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows of %q: %w", table.Name, err)
	}

	return out, nil
}

// FetchPairs implements migrate.Source. Null foreign-key values are filtered
// at the source: they can never match a parent node.
func (s *SQLSource) FetchPairs(ctx context.Context, table migrate.Table, fkColumn, pkColumn string) ([][2]migrate.Value, error) {
	fkCol, ok := table.ColumnNamed(fkColumn)
	if !ok {
		return nil, fmt.Errorf("table %q has no column %q", table.Name, fkColumn)
	}

	pkCol, ok := table.ColumnNamed(pkColumn)
	if !ok {
		return nil, fmt.Errorf("table %q has no column %q", table.Name, pkColumn)
	}

	query := fmt.Sprintf(
		"SELECT %s, %s FROM %s WHERE %s IS NOT NULL",
		s.quote(fkColumn), s.quote(pkColumn),
		s.qualify(table.Schema, table.Name), s.quote(fkColumn),
	)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pairs of %q: %w", table.Name, err)
	}
	defer rows.Close()

	var out [][2]migrate.Value

	for rows.Next() {
		var rawFK, rawPK any
		if err := rows.Scan(&rawFK, &rawPK); err != nil {
			return nil, fmt.Errorf("failed to scan pair of %q: %w", table.Name, err)
		}

		fkVal, err := decodeValue(rawFK, fkCol)
		if err != nil {
			return nil, fmt.Errorf("column %q of %q: %w", fkColumn, table.Name, err)
		}

		pkVal, err := decodeValue(rawPK, pkCol)
		if err != nil {
			return nil, fmt.Errorf("column %q of %q: %w", pkColumn, table.Name, err)
		}

		out = append(out, [2]migrate.Value{fkVal, pkVal})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pairs of %q: %w", table.Name, err)
	}

	return out, nil
}

// quote quotes one identifier for the dialect.
func (s *SQLSource) quote(name string) string {
	if s.dialect == MySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}

	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// qualify builds the schema-qualified table reference. SQLite has no
// schemas, so the table name stands alone.
func (s *SQLSource) qualify(schema, table string) string {
	if s.dialect == SQLite || schema == "" {
		return s.quote(table)
	}

	return s.quote(schema) + "." + s.quote(table)
}
