// Package mocks holds hand-written fakes for the migration boundaries.
package mocks

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/relgraph/relgraph/src/migrate"
)

var (
	_ migrate.Source    = (*Source)(nil)
	_ migrate.GraphConn = (*Graph)(nil)
)

// Source is an in-memory migrate.Source.
type Source struct {
	Tables []migrate.Table
	FKs    map[string][]migrate.ForeignKey  // keyed by table name
	Rows   map[string][][]migrate.Value     // keyed by table name
	Pairs  map[string][][2]migrate.Value    // keyed by "table.fkColumn"

	ListTablesErr error
	FetchRowsErr  map[string]error // keyed by table name
}

func (s *Source) ListTables(_ context.Context, _ string) ([]migrate.Table, error) {
	if s.ListTablesErr != nil {
		return nil, s.ListTablesErr
	}

	return s.Tables, nil
}

func (s *Source) ListForeignKeys(_ context.Context, _, table string) ([]migrate.ForeignKey, error) {
	return s.FKs[table], nil
}

func (s *Source) FetchRows(_ context.Context, table migrate.Table) ([][]migrate.Value, error) {
	if err := s.FetchRowsErr[table.Name]; err != nil {
		return nil, err
	}

	return s.Rows[table.Name], nil
}

func (s *Source) FetchPairs(_ context.Context, table migrate.Table, fkColumn, _ string) ([][2]migrate.Value, error) {
	return s.Pairs[table.Name+"."+fkColumn], nil
}

var (
	nodeDDLRe    = regexp.MustCompile(`^CREATE NODE TABLE IF NOT EXISTS (\w+) \(`)
	nodeCreateRe = regexp.MustCompile(`^CREATE \(n:(\w+) \{`)
	relDDLRe     = regexp.MustCompile(`^CREATE REL TABLE IF NOT EXISTS (\w+) \(FROM (\w+) TO (\w+)\);$`)
	relCreateRe  = regexp.MustCompile(`CREATE \(a\)-\[:(\w+)\]->\(b\);$`)
	nodeCountRe  = regexp.MustCompile(`^MATCH \(n:(\w+)\) RETURN COUNT\(n\);$`)
	relCountRe   = regexp.MustCompile(`^MATCH \(\)-\[r:(\w+)\]->\(\) RETURN COUNT\(r\);$`)
)

// Graph is an in-memory migrate.GraphConn. It interprets the statements the
// migration issues just far enough to act like a store: type creation is
// idempotent, instance creation bumps a counter, count queries read it back.
type Graph struct {
	mu sync.Mutex

	Executed   []string
	nodeTypes  []string
	relTypes   []migrate.RelType
	nodeCounts map[string]int64
	relCounts  map[string]int64

	// DropRels silently swallows the first N edge creations per
	// relationship type, like a store whose MATCH found no endpoints.
	DropRels map[string]int64

	// FailOn returns a forced error for a statement, when set.
	FailOn func(stmt string) error
}

func NewGraph() *Graph {
	return &Graph{
		nodeCounts: make(map[string]int64),
		relCounts:  make(map[string]int64),
	}
}

func (g *Graph) Execute(_ context.Context, stmt string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.FailOn != nil {
		if err := g.FailOn(stmt); err != nil {
			return err
		}
	}

	g.Executed = append(g.Executed, stmt)

	switch {
	case nodeDDLRe.MatchString(stmt):
		name := nodeDDLRe.FindStringSubmatch(stmt)[1]
		if !g.hasNodeType(name) {
			g.nodeTypes = append(g.nodeTypes, name)
		}
	case relDDLRe.MatchString(stmt):
		m := relDDLRe.FindStringSubmatch(stmt)
		if !g.hasRelType(m[1]) {
			g.relTypes = append(g.relTypes, migrate.RelType{
				Name:   m[1],
				Source: m[2],
				Target: m[3],
			})
		}
	case nodeCreateRe.MatchString(stmt):
		name := nodeCreateRe.FindStringSubmatch(stmt)[1]
		if !g.hasNodeType(name) {
			return fmt.Errorf("no such node type %q", name)
		}

		g.nodeCounts[name]++
	case relCreateRe.MatchString(stmt):
		name := relCreateRe.FindStringSubmatch(stmt)[1]
		if !g.hasRelType(name) {
			return fmt.Errorf("no such relationship type %q", name)
		}

		if g.DropRels[name] > 0 {
			g.DropRels[name]--
			return nil
		}

		g.relCounts[name]++
	default:
		return fmt.Errorf("unrecognized statement %q", stmt)
	}

	return nil
}

func (g *Graph) Count(_ context.Context, stmt string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if m := nodeCountRe.FindStringSubmatch(stmt); m != nil {
		return g.nodeCounts[m[1]], nil
	}

	if m := relCountRe.FindStringSubmatch(stmt); m != nil {
		return g.relCounts[m[1]], nil
	}

	return 0, fmt.Errorf("unrecognized count statement %q", stmt)
}

func (g *Graph) NodeTypes(_ context.Context) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return append([]string(nil), g.nodeTypes...), nil
}

func (g *Graph) RelTypes(_ context.Context) ([]migrate.RelType, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return append([]migrate.RelType(nil), g.relTypes...), nil
}

// NodeCount reads a node type's stored instance count.
func (g *Graph) NodeCount(name string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.nodeCounts[name]
}

// RelCount reads a relationship type's stored instance count.
func (g *Graph) RelCount(name string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.relCounts[name]
}

func (g *Graph) hasNodeType(name string) bool {
	for _, n := range g.nodeTypes {
		if n == name {
			return true
		}
	}

	return false
}

func (g *Graph) hasRelType(name string) bool {
	for _, r := range g.relTypes {
		if r.Name == name {
			return true
		}
	}

	return false
}
