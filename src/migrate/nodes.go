package migrate

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// loadNodes creates one node type per qualifying table and inserts all of
// its rows. It returns the set of loaded tables, mapping table name to its
// primary-key column; the edge phase may only reference tables in that set.
//
// Tables are independent, so they load on a bounded errgroup; each table is
// still all-rows-or-abort. A failed table fails the phase.
func (m *Migrator) loadNodes(ctx context.Context, tables []Table, report *Report) (map[string]string, error) {
	loaded := make(map[string]string, len(tables))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)

	for _, t := range tables {
		pk, ok := t.SinglePrimaryKey()
		if !ok {
			reason := fmt.Sprintf("primary key count = %d", len(t.PrimaryKeys))
			m.log.Warnf("skipping table %s: %s", t.Name, reason)
			report.addSkippedTable(t.Name, reason)

			continue
		}

		loaded[t.Name] = pk

		g.Go(func() error {
			rows, err := m.loadTable(ctx, t, pk)
			if err != nil {
				return fmt.Errorf("failed to load table %q: %w", t.Name, err)
			}

			report.addNodeType(t.Name, rows)
			m.log.Infof("inserted %d nodes into %s", rows, t.Name)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return loaded, nil
}

// loadTable creates the node type and inserts every row of one table.
func (m *Migrator) loadTable(ctx context.Context, t Table, pk string) (int, error) {
	ddl, err := nodeTableStmt(t, pk)
	if err != nil {
		return 0, err
	}

	if err := m.graph.Execute(ctx, ddl); err != nil {
		return 0, fmt.Errorf("failed to create node type: %w", err)
	}

	m.log.Debugf("created node type %s", t.Name)

	rows, err := m.source.FetchRows(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch rows: %w", err)
	}

	for i, row := range rows {
		stmt, err := nodeCreateStmt(t, row)
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", i, err)
		}

		if err := m.graph.Execute(ctx, stmt); err != nil {
			return 0, fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	return len(rows), nil
}
