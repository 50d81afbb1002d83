package migrate

import (
	"context"
	"fmt"
)

// Verify reads the store's current node and relationship types back (not the
// ones tracked this run) and counts each. For relationship types the run did
// create, a stored count below the pairs attempted means some pairs matched
// no endpoint nodes and were dropped by the store; that is recorded as an
// anomaly rather than silently ignored.
func (m *Migrator) Verify(ctx context.Context, report *Report) error {
	nodeTypes, err := m.graph.NodeTypes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list node types: %w", err)
	}

	for _, name := range nodeTypes {
		if !validIdent(name) {
			return fmt.Errorf("store returned invalid node type name %q", name)
		}

		count, err := m.graph.Count(ctx, nodeCountStmt(name))
		if err != nil {
			return fmt.Errorf("failed to count nodes of %q: %w", name, err)
		}

		report.addNodeCount(name, count)
		m.log.Infof("%s: %d nodes", name, count)
	}

	relTypes, err := m.graph.RelTypes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list relationship types: %w", err)
	}

	for _, rel := range relTypes {
		if !validIdent(rel.Name) {
			return fmt.Errorf("store returned invalid relationship type name %q", rel.Name)
		}

		count, err := m.graph.Count(ctx, relCountStmt(rel.Name))
		if err != nil {
			return fmt.Errorf("failed to count relationships of %q: %w", rel.Name, err)
		}

		report.addRelCount(rel.Name, count)
		m.log.Infof("%s: %d relationships", rel.Name, count)

		if attempted, ok := report.attemptedPairs(rel.Name); ok && count < int64(attempted) {
			report.addAnomaly(
				"relationship type %s: %d pairs attempted, %d stored",
				rel.Name, attempted, count,
			)
			m.log.Warnf(
				"relationship type %s: %d of %d pairs matched no existing nodes",
				rel.Name, int64(attempted)-count, attempted,
			)
		}
	}

	return nil
}
