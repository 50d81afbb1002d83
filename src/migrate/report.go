package migrate

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// NodeTypeResult records one node type created this run.
type NodeTypeResult struct {
	Table string `json:"table"`
	Rows  int    `json:"rows"`
}

// EdgeTypeResult records one relationship type created this run. Pairs is
// the number of creation statements issued, which is an upper bound on the
// edges actually stored (a pair whose endpoint is missing is a store-level
// no-op).
type EdgeTypeResult struct {
	Name   string `json:"name"`
	Parent string `json:"parent"`
	Child  string `json:"child"`
	Pairs  int    `json:"pairs"`
}

// Skip records one table or foreign key excluded from the run.
type Skip struct {
	Table  string `json:"table"`
	Reason string `json:"reason"`
}

// TypeCount is one read-back count from the verification phase.
type TypeCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Report accumulates what a run did. Append methods are safe for concurrent
// use by parallel loaders.
type Report struct {
	mu sync.Mutex

	RunID      string    `json:"run_id"`
	Schema     string    `json:"schema"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	NodeTypes     []NodeTypeResult `json:"node_types"`
	SkippedTables []Skip           `json:"skipped_tables,omitempty"`
	EdgeTypes     []EdgeTypeResult `json:"edge_types"`
	SkippedEdges  []Skip           `json:"skipped_edges,omitempty"`

	NodeCounts []TypeCount `json:"node_counts"`
	RelCounts  []TypeCount `json:"rel_counts"`
	Anomalies  []string    `json:"anomalies,omitempty"`
}

func NewReport(schema string) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Schema:    schema,
		StartedAt: time.Now().UTC(),
	}
}

func (r *Report) addNodeType(table string, rows int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.NodeTypes = append(r.NodeTypes, NodeTypeResult{Table: table, Rows: rows})
}

func (r *Report) addSkippedTable(table, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.SkippedTables = append(r.SkippedTables, Skip{Table: table, Reason: reason})
}

func (r *Report) addEdgeType(name, parent, child string, pairs int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.EdgeTypes = append(r.EdgeTypes, EdgeTypeResult{
		Name:   name,
		Parent: parent,
		Child:  child,
		Pairs:  pairs,
	})
}

func (r *Report) addSkippedEdge(table, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.SkippedEdges = append(r.SkippedEdges, Skip{Table: table, Reason: reason})
}

func (r *Report) addNodeCount(name string, count int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.NodeCounts = append(r.NodeCounts, TypeCount{Name: name, Count: count})
}

func (r *Report) addRelCount(name string, count int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.RelCounts = append(r.RelCounts, TypeCount{Name: name, Count: count})
}

func (r *Report) addAnomaly(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Anomalies = append(r.Anomalies, fmt.Sprintf(format, args...))
}

// attemptedPairs returns the pairs issued for a relationship type this run.
func (r *Report) attemptedPairs(name string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.EdgeTypes {
		if e.Name == name {
			return e.Pairs, true
		}
	}

	return 0, false
}

func (r *Report) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.FinishedAt = time.Now().UTC()
}

// WriteJSON writes the report to path on fs.
func (r *Report) WriteJSON(fs afero.Fs, path string) error {
	r.mu.Lock()
	data, err := json.MarshalIndent(r, "", "  ")
	r.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := afero.WriteFile(fs, path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}
