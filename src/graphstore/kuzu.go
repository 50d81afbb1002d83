// Package graphstore adapts the embedded Kùzu database to the migration's
// GraphConn boundary.
package graphstore

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	kuzu "github.com/kuzudb/go-kuzu"

	"github.com/relgraph/relgraph/src/migrate"
)

// Table names read back from the store are interpolated into follow-up
// CALL statements, so anything beyond a plain identifier is rejected here,
// at the boundary.
var tableNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func validTableName(s string) bool {
	return s != "" && len(s) <= 128 && tableNameRe.MatchString(s)
}

// Kuzu owns one embedded database and one connection to it. The connection
// is guarded by a mutex so pooled loaders can share it.
type Kuzu struct {
	mu   sync.Mutex
	db   *kuzu.Database
	conn *kuzu.Connection
}

var _ migrate.GraphConn = (*Kuzu)(nil)

// OpenKuzu opens (or creates) the database at path.
func OpenKuzu(path string) (*Kuzu, error) {
	db, err := kuzu.OpenDatabase(path, kuzu.DefaultSystemConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open graph database at %q: %w", path, err)
	}

	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to graph database: %w", err)
	}

	return &Kuzu{db: db, conn: conn}, nil
}

func (k *Kuzu) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.conn.Close()
	k.db.Close()

	return nil
}

// Execute implements migrate.GraphConn.
func (k *Kuzu) Execute(ctx context.Context, stmt string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	result, err := k.conn.Query(stmt)
	if err != nil {
		return fmt.Errorf("failed to execute %q: %w", stmt, err)
	}
	defer result.Close()

	return nil
}

// Count implements migrate.GraphConn.
func (k *Kuzu) Count(ctx context.Context, stmt string) (int64, error) {
	rows, err := k.query(ctx, stmt)
	if err != nil {
		return 0, err
	}

	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, fmt.Errorf("count query %q returned no rows", stmt)
	}

	count, ok := rows[0][0].(int64)
	if !ok {
		return 0, fmt.Errorf("count query %q returned %T, want int64", stmt, rows[0][0])
	}

	return count, nil
}

// NodeTypes implements migrate.GraphConn.
func (k *Kuzu) NodeTypes(ctx context.Context) ([]string, error) {
	rows, err := k.query(ctx, "CALL SHOW_TABLES() RETURN name, type;")
	if err != nil {
		return nil, err
	}

	var names []string

	for _, row := range rows {
		name, kind, err := tableRow(row)
		if err != nil {
			return nil, err
		}

		if kind == "NODE" {
			names = append(names, name)
		}
	}

	return names, nil
}

// RelTypes implements migrate.GraphConn.
func (k *Kuzu) RelTypes(ctx context.Context) ([]migrate.RelType, error) {
	rows, err := k.query(ctx, "CALL SHOW_TABLES() RETURN name, type;")
	if err != nil {
		return nil, err
	}

	var rels []migrate.RelType

	for _, row := range rows {
		name, kind, err := tableRow(row)
		if err != nil {
			return nil, err
		}

		if kind != "REL" {
			continue
		}

		if !validTableName(name) {
			return nil, fmt.Errorf("store returned invalid relationship type name %q", name)
		}

		src, dst, err := k.connection(ctx, name)
		if err != nil {
			return nil, err
		}

		rels = append(rels, migrate.RelType{Name: name, Source: src, Target: dst})
	}

	return rels, nil
}

func (k *Kuzu) connection(ctx context.Context, rel string) (string, string, error) {
	rows, err := k.query(ctx, fmt.Sprintf("CALL SHOW_CONNECTION('%s') RETURN *;", rel))
	if err != nil {
		return "", "", err
	}

	if len(rows) == 0 || len(rows[0]) < 2 {
		return "", "", fmt.Errorf("no connection info for relationship type %q", rel)
	}

	src, ok := rows[0][0].(string)
	if !ok {
		return "", "", fmt.Errorf("unexpected connection info for %q", rel)
	}

	dst, ok := rows[0][1].(string)
	if !ok {
		return "", "", fmt.Errorf("unexpected connection info for %q", rel)
	}

	return src, dst, nil
}

// query runs stmt and materializes every tuple.
func (k *Kuzu) query(ctx context.Context, stmt string) ([][]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	result, err := k.conn.Query(stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %q: %w", stmt, err)
	}
	defer result.Close()

	var rows [][]any

	for result.HasNext() {
		tuple, err := result.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to read result of %q: %w", stmt, err)
		}

		values, err := tuple.GetAsSlice()
		tuple.Close()

		if err != nil {
			return nil, fmt.Errorf("failed to read tuple of %q: %w", stmt, err)
		}

		rows = append(rows, values)
	}

	return rows, nil
}

func tableRow(row []any) (name, kind string, err error) {
	if len(row) < 2 {
		return "", "", fmt.Errorf("unexpected SHOW_TABLES row of width %d", len(row))
	}

	name, ok := row[0].(string)
	if !ok {
		return "", "", fmt.Errorf("unexpected SHOW_TABLES name %T", row[0])
	}

	kind, ok = row[1].(string)
	if !ok {
		return "", "", fmt.Errorf("unexpected SHOW_TABLES type %T", row[1])
	}

	return name, kind, nil
}
