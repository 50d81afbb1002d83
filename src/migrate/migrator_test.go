package migrate_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/relgraph/relgraph/src/migrate"
	"github.com/relgraph/relgraph/src/migrate/mocks"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// shopSource is the customers/orders scenario: two customers, one order
// referencing the first customer.
func shopSource() *mocks.Source {
	customers := migrate.Table{
		Schema: "public",
		Name:   "customers",
		Columns: []migrate.Column{
			{Name: "id", Kind: migrate.ColInteger, Declared: "integer"},
			{Name: "name", Kind: migrate.ColOther, Declared: "text"},
			{Name: "joined", Kind: migrate.ColTemporal, Declared: "date"},
		},
		PrimaryKeys: []string{"id"},
	}

	orders := migrate.Table{
		Schema: "public",
		Name:   "orders",
		Columns: []migrate.Column{
			{Name: "id", Kind: migrate.ColInteger, Declared: "integer"},
			{Name: "customer_id", Kind: migrate.ColInteger, Declared: "integer"},
			{Name: "total", Kind: migrate.ColFloat, Declared: "numeric"},
		},
		PrimaryKeys: []string{"id"},
	}

	return &mocks.Source{
		Tables: []migrate.Table{customers, orders},
		FKs: map[string][]migrate.ForeignKey{
			"orders": {{
				Table:     "orders",
				Column:    "customer_id",
				RefTable:  "customers",
				RefColumn: "id",
			}},
		},
		Rows: map[string][][]migrate.Value{
			"customers": {
				{migrate.Int(1), migrate.Text("Alice"), migrate.Date(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))},
				{migrate.Int(2), migrate.Text("O'Brien"), migrate.Date(time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC))},
			},
			"orders": {
				{migrate.Int(1), migrate.Int(1), migrate.Decimal("19.99")},
			},
		},
		Pairs: map[string][][2]migrate.Value{
			"orders.customer_id": {
				{migrate.Int(1), migrate.Int(1)},
			},
		},
	}
}

func TestRunShopScenario(t *testing.T) {
	graph := mocks.NewGraph()
	m := migrate.New(shopSource(), graph, testLogger(), 1)

	report, err := m.Run(context.Background(), "public")
	require.NoError(t, err)

	require.EqualValues(t, 2, graph.NodeCount("customers"))
	require.EqualValues(t, 1, graph.NodeCount("orders"))
	require.EqualValues(t, 1, graph.RelCount("customers_orders_edge"))

	require.Contains(t, graph.Executed,
		`CREATE (n:customers {id: 2, name: 'O\'Brien', joined: '2021-06-15'});`)
	require.Contains(t, graph.Executed,
		"CREATE (n:orders {id: 1, customer_id: 1, total: 19.99});")
	require.Contains(t, graph.Executed,
		"MATCH (a:customers), (b:orders) WHERE a.id = 1 AND b.id = 1 CREATE (a)-[:customers_orders_edge]->(b);")

	require.ElementsMatch(t, report.NodeCounts, []migrate.TypeCount{
		{Name: "customers", Count: 2},
		{Name: "orders", Count: 1},
	})
	require.ElementsMatch(t, report.RelCounts, []migrate.TypeCount{
		{Name: "customers_orders_edge", Count: 1},
	})
	require.Empty(t, report.Anomalies)
	require.NotEmpty(t, report.RunID)
}

func TestRunNodePhaseCompletesBeforeEdges(t *testing.T) {
	graph := mocks.NewGraph()
	m := migrate.New(shopSource(), graph, testLogger(), 1)

	_, err := m.Run(context.Background(), "public")
	require.NoError(t, err)

	lastNode := -1
	firstEdge := len(graph.Executed)

	for i, stmt := range graph.Executed {
		switch {
		case strings.HasPrefix(stmt, "CREATE (n"):
			lastNode = i
		case strings.HasPrefix(stmt, "MATCH (a:") && i < firstEdge:
			firstEdge = i
		}
	}

	require.Less(t, lastNode, firstEdge)
}

func TestRunSkipsTablesWithoutSinglePK(t *testing.T) {
	src := shopSource()
	src.Tables = append(src.Tables, migrate.Table{
		Schema: "public",
		Name:   "order_items",
		Columns: []migrate.Column{
			{Name: "order_id", Kind: migrate.ColInteger},
			{Name: "item_id", Kind: migrate.ColInteger},
		},
		PrimaryKeys: []string{"order_id", "item_id"},
	})

	graph := mocks.NewGraph()
	m := migrate.New(src, graph, testLogger(), 1)

	report, err := m.Run(context.Background(), "public")
	require.NoError(t, err)

	require.Len(t, report.SkippedTables, 1)
	require.Equal(t, "order_items", report.SkippedTables[0].Table)

	types, err := graph.NodeTypes(context.Background())
	require.NoError(t, err)
	require.NotContains(t, types, "order_items")
}

func TestRunSkipsEdgesWithUnloadedParent(t *testing.T) {
	src := shopSource()

	// parent loses its single primary key, so it is never loaded
	customers := src.Tables[0]
	customers.PrimaryKeys = []string{"id", "name"}
	src.Tables[0] = customers

	graph := mocks.NewGraph()
	m := migrate.New(src, graph, testLogger(), 1)

	report, err := m.Run(context.Background(), "public")
	require.NoError(t, err)

	require.Len(t, report.SkippedEdges, 1)
	require.Empty(t, report.EdgeTypes)

	rels, err := graph.RelTypes(context.Background())
	require.NoError(t, err)
	require.Empty(t, rels)
}

func TestRunSkipsEmptyRelationshipTypes(t *testing.T) {
	src := shopSource()
	src.Pairs["orders.customer_id"] = nil

	graph := mocks.NewGraph()
	m := migrate.New(src, graph, testLogger(), 1)

	report, err := m.Run(context.Background(), "public")
	require.NoError(t, err)

	// no empty types left behind
	rels, err := graph.RelTypes(context.Background())
	require.NoError(t, err)
	require.Empty(t, rels)
	require.Empty(t, report.EdgeTypes)
}

func TestRunSerializationFailureNamesTable(t *testing.T) {
	src := shopSource()
	src.Rows["orders"] = [][]migrate.Value{
		{migrate.Int(1), migrate.Int(1), {Kind: migrate.ValueKind(99)}},
	}

	graph := mocks.NewGraph()
	m := migrate.New(src, graph, testLogger(), 1)

	_, err := m.Run(context.Background(), "public")
	require.Error(t, err)
	require.Contains(t, err.Error(), `"orders"`)
}

func TestRunStoreFailureIsFatal(t *testing.T) {
	boom := errors.New("store exploded")

	graph := mocks.NewGraph()
	graph.FailOn = func(stmt string) error {
		if stmt == "CREATE REL TABLE IF NOT EXISTS customers_orders_edge (FROM customers TO orders);" {
			return boom
		}

		return nil
	}

	m := migrate.New(shopSource(), graph, testLogger(), 1)

	_, err := m.Run(context.Background(), "public")
	require.ErrorIs(t, err, boom)
}

func TestRunReflectionFailureIsFatal(t *testing.T) {
	boom := errors.New("source unreachable")
	src := shopSource()
	src.ListTablesErr = boom

	m := migrate.New(src, mocks.NewGraph(), testLogger(), 1)

	_, err := m.Run(context.Background(), "public")
	require.ErrorIs(t, err, boom)
}

func TestRunSchemaCreationIsIdempotent(t *testing.T) {
	graph := mocks.NewGraph()

	m := migrate.New(shopSource(), graph, testLogger(), 1)
	_, err := m.Run(context.Background(), "public")
	require.NoError(t, err)

	// second run against the same store: type creation must not error or
	// duplicate types, instances simply pile up
	m = migrate.New(shopSource(), graph, testLogger(), 1)
	_, err = m.Run(context.Background(), "public")
	require.NoError(t, err)

	types, err := graph.NodeTypes(context.Background())
	require.NoError(t, err)
	require.ElementsMatch(t, types, []string{"customers", "orders"})

	require.EqualValues(t, 4, graph.NodeCount("customers"))
}

func TestRunParallelWorkers(t *testing.T) {
	graph := mocks.NewGraph()
	m := migrate.New(shopSource(), graph, testLogger(), 4)

	report, err := m.Run(context.Background(), "public")
	require.NoError(t, err)

	require.EqualValues(t, 2, graph.NodeCount("customers"))
	require.EqualValues(t, 1, graph.NodeCount("orders"))
	require.EqualValues(t, 1, graph.RelCount("customers_orders_edge"))
	require.Empty(t, report.Anomalies)
}

func TestRunParallelWorkersSurfaceStoreError(t *testing.T) {
	boom := errors.New("store exploded")

	src := shopSource()
	src.Pairs["orders.customer_id"] = [][2]migrate.Value{
		{migrate.Int(1), migrate.Int(1)},
		{migrate.Int(2), migrate.Int(1)},
		{migrate.Int(3), migrate.Int(1)},
	}

	graph := mocks.NewGraph()
	graph.FailOn = func(stmt string) error {
		if strings.Contains(stmt, "a.id = 2") {
			return boom
		}

		return nil
	}

	m := migrate.New(src, graph, testLogger(), 4)

	_, err := m.Run(context.Background(), "public")
	require.ErrorIs(t, err, boom)
}

func TestVerifyCountsDroppedPairsAsAnomaly(t *testing.T) {
	src := shopSource()
	src.Pairs["orders.customer_id"] = [][2]migrate.Value{
		{migrate.Int(1), migrate.Int(1)},
		{migrate.Int(999), migrate.Int(1)}, // no such customer
	}

	graph := mocks.NewGraph()
	graph.DropRels = map[string]int64{"customers_orders_edge": 1}

	m := migrate.New(src, graph, testLogger(), 1)

	report, err := m.Run(context.Background(), "public")
	require.NoError(t, err)

	require.Len(t, report.Anomalies, 1)
	require.Contains(t, report.Anomalies[0], "customers_orders_edge")
}

func TestVerifyStandalone(t *testing.T) {
	graph := mocks.NewGraph()

	m := migrate.New(shopSource(), graph, testLogger(), 1)
	_, err := m.Run(context.Background(), "public")
	require.NoError(t, err)

	// a fresh verification pass over existing store state, nothing tracked
	fresh := migrate.New(nil, graph, testLogger(), 1)
	report := migrate.NewReport("public")
	require.NoError(t, fresh.Verify(context.Background(), report))

	require.Len(t, report.NodeCounts, 2)
	require.Len(t, report.RelCounts, 1)
	require.Empty(t, report.Anomalies)
}

func TestReportWriteJSON(t *testing.T) {
	graph := mocks.NewGraph()
	m := migrate.New(shopSource(), graph, testLogger(), 1)

	report, err := m.Run(context.Background(), "public")
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	require.NoError(t, report.WriteJSON(fs, "/tmp/report.json"))

	data, err := afero.ReadFile(fs, "/tmp/report.json")
	require.NoError(t, err)
	require.Contains(t, string(data), `"customers_orders_edge"`)
	require.Contains(t, string(data), report.RunID)
}
