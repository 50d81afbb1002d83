package migrate

import (
	"context"
	"fmt"

	"github.com/relgraph/relgraph/src"
)

// Migrator copies one relational schema into the graph store: every table
// with a single primary key becomes a node type, every foreign key between
// loaded tables becomes a relationship type.
type Migrator struct {
	source  Source
	graph   GraphConn
	log     src.Logger
	workers int
}

// New builds a Migrator. workers bounds per-table and per-pair parallelism;
// values below 2 keep the load fully sequential.
func New(source Source, graph GraphConn, log src.Logger, workers int) *Migrator {
	if workers < 1 {
		workers = 1
	}

	return &Migrator{
		source:  source,
		graph:   graph,
		log:     log,
		workers: workers,
	}
}

// Run migrates the schema: node phase, then edge phase, then verification.
// The edge phase never starts before every table's node load has finished.
// The returned report is valid even when err is non-nil and describes what
// was done up to the failure.
func (m *Migrator) Run(ctx context.Context, schema string) (*Report, error) {
	report := NewReport(schema)
	defer report.finish()

	tables, err := m.source.ListTables(ctx, schema)
	if err != nil {
		return report, fmt.Errorf("failed to reflect schema %q: %w", schema, err)
	}

	names := make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, t.Name)
	}

	m.log.Infow("reflected schema", "schema", schema, "tables", names)

	loaded, err := m.loadNodes(ctx, tables, report)
	if err != nil {
		return report, err
	}

	if err := m.loadEdges(ctx, tables, loaded, report); err != nil {
		return report, err
	}

	if err := m.Verify(ctx, report); err != nil {
		return report, err
	}

	return report, nil
}
