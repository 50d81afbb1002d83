package migrate

import "context"

// Source reflects and reads the relational side of the migration.
type Source interface {
	// ListTables reflects every base table of the schema, columns in
	// ordinal order.
	ListTables(ctx context.Context, schema string) ([]Table, error)

	// ListForeignKeys reflects the single-column foreign keys declared on
	// the table.
	ListForeignKeys(ctx context.Context, schema, table string) ([]ForeignKey, error)

	// FetchRows reads every row of the table in one pass, values aligned
	// to the table's column order.
	FetchRows(ctx context.Context, table Table) ([][]Value, error)

	// FetchPairs reads every (fkColumn, pkColumn) pair of the table whose
	// foreign-key value is non-null.
	FetchPairs(ctx context.Context, table Table, fkColumn, pkColumn string) ([][2]Value, error)
}

// RelType identifies one relationship type present in the graph store.
type RelType struct {
	Name   string
	Source string
	Target string
}

// GraphConn is the narrow surface of the graph store the migration needs.
// Implementations must be safe for concurrent Execute calls.
type GraphConn interface {
	// Execute runs a schema or instance-creation statement.
	Execute(ctx context.Context, stmt string) error

	// Count runs a statement returning a single COUNT value.
	Count(ctx context.Context, stmt string) (int64, error)

	// NodeTypes enumerates the node types present in the store.
	NodeTypes(ctx context.Context) ([]string, error)

	// RelTypes enumerates the relationship types present in the store.
	RelTypes(ctx context.Context) ([]RelType, error)
}
