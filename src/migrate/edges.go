package migrate

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants"
)

// loadEdges creates one relationship type per foreign key between loaded
// tables and connects the matching node pairs. loaded is the node phase's
// result; a foreign key whose parent (or child) is not in it is skipped with
// a warning, since the endpoint node type does not exist.
func (m *Migrator) loadEdges(ctx context.Context, tables []Table, loaded map[string]string, report *Report) error {
	for _, t := range tables {
		childPK, ok := loaded[t.Name]
		if !ok {
			continue
		}

		fks, err := m.source.ListForeignKeys(ctx, t.Schema, t.Name)
		if err != nil {
			return fmt.Errorf("failed to reflect foreign keys of %q: %w", t.Name, err)
		}

		for _, fk := range fks {
			if _, ok := loaded[fk.RefTable]; !ok {
				reason := fmt.Sprintf(
					"foreign key %s.%s: parent table %s was not loaded",
					fk.Table, fk.Column, fk.RefTable,
				)
				m.log.Warnf("skipping edge: %s", reason)
				report.addSkippedEdge(fk.Table, reason)

				continue
			}

			pairs, err := m.source.FetchPairs(ctx, t, fk.Column, childPK)
			if err != nil {
				return fmt.Errorf(
					"failed to fetch pairs for %s.%s: %w", t.Name, fk.Column, err,
				)
			}

			if len(pairs) == 0 {
				continue
			}

			ddl, err := relTableStmt(fk.RefTable, t.Name)
			if err != nil {
				return err
			}

			if err := m.graph.Execute(ctx, ddl); err != nil {
				return fmt.Errorf(
					"failed to create relationship type %s: %w",
					EdgeTypeName(fk.RefTable, t.Name), err,
				)
			}

			if err := m.connectPairs(ctx, fk, t.Name, childPK, pairs); err != nil {
				return fmt.Errorf(
					"failed to connect %s -> %s: %w", fk.RefTable, t.Name, err,
				)
			}

			report.addEdgeType(EdgeTypeName(fk.RefTable, t.Name), fk.RefTable, t.Name, len(pairs))
			m.log.Infof("inserted %d relationships for %s -> %s", len(pairs), fk.RefTable, t.Name)
		}
	}

	return nil
}

// connectPairs issues one MATCH..CREATE per pair. All statements are built
// up front so a serialization failure aborts the batch before the store sees
// any of it. Pairs within one relationship type are independent, so with
// more than one worker they run on a pool.
func (m *Migrator) connectPairs(ctx context.Context, fk ForeignKey, child, childPK string, pairs [][2]Value) error {
	stmts := make([]string, 0, len(pairs))

	for _, p := range pairs {
		stmt, err := relCreateStmt(fk.RefTable, fk.RefColumn, child, childPK, p[0], p[1])
		if err != nil {
			return err
		}

		stmts = append(stmts, stmt)
	}

	if m.workers < 2 {
		for _, stmt := range stmts {
			if err := m.graph.Execute(ctx, stmt); err != nil {
				return err
			}
		}

		return nil
	}

	return m.connectPooled(ctx, stmts)
}

func (m *Migrator) connectPooled(ctx context.Context, stmts []string) error {
	pool, err := ants.NewPool(m.workers)
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for _, stmt := range stmts {
		mu.Lock()
		failed := firstErr != nil
		mu.Unlock()

		if failed {
			break
		}

		wg.Add(1)

		submitErr := pool.Submit(func() {
			defer wg.Done()

			if execErr := m.graph.Execute(ctx, stmt); execErr != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = execErr
				}
				mu.Unlock()
			}
		})

		if submitErr != nil {
			wg.Done()
			wg.Wait()

			return fmt.Errorf("failed to submit edge task: %w", submitErr)
		}
	}

	wg.Wait()

	mu.Lock()
	defer mu.Unlock()

	return firstErr
}
