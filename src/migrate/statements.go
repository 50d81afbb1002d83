package migrate

import (
	"fmt"
	"regexp"
	"strings"
)

// Identifiers (table and column names) are interpolated into statements, so
// anything that is not a plain identifier is rejected before it gets near a
// query.
var identRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func validIdent(s string) bool {
	return s != "" && len(s) <= 128 && identRe.MatchString(s)
}

// EdgeTypeName derives the relationship type name for a foreign key,
// deterministically from the parent and child table names.
func EdgeTypeName(parent, child string) string {
	return parent + "_" + child + "_edge"
}

// nodeTableStmt builds the idempotent node-type DDL for a table. pk must be
// the table's single primary-key column.
func nodeTableStmt(t Table, pk string) (string, error) {
	if !validIdent(t.Name) {
		return "", fmt.Errorf("invalid table name %q", t.Name)
	}

	defs := make([]string, 0, len(t.Columns))

	for _, col := range t.Columns {
		if !validIdent(col.Name) {
			return "", fmt.Errorf("invalid column name %q in table %q", col.Name, t.Name)
		}

		def := fmt.Sprintf("%s %s", col.Name, PropertyTypeOf(col.Kind))
		if col.Name == pk {
			def += " PRIMARY KEY"
		}

		defs = append(defs, def)
	}

	return fmt.Sprintf(
		"CREATE NODE TABLE IF NOT EXISTS %s (%s);",
		t.Name, strings.Join(defs, ", "),
	), nil
}

// nodeCreateStmt builds the instance-creation statement for one row. values
// must align with t.Columns.
func nodeCreateStmt(t Table, values []Value) (string, error) {
	if len(values) != len(t.Columns) {
		return "", fmt.Errorf(
			"row width %d does not match %d columns of table %q",
			len(values), len(t.Columns), t.Name,
		)
	}

	props := make([]string, 0, len(values))

	for i, col := range t.Columns {
		lit, err := Literal(values[i])
		if err != nil {
			return "", fmt.Errorf("failed to serialize column %q: %w", col.Name, err)
		}

		props = append(props, col.Name+": "+lit)
	}

	return fmt.Sprintf("CREATE (n:%s {%s});", t.Name, strings.Join(props, ", ")), nil
}

// relTableStmt builds the idempotent relationship-type DDL, directed
// parent -> child.
func relTableStmt(parent, child string) (string, error) {
	if !validIdent(parent) || !validIdent(child) {
		return "", fmt.Errorf("invalid table name in edge %q -> %q", parent, child)
	}

	return fmt.Sprintf(
		"CREATE REL TABLE IF NOT EXISTS %s (FROM %s TO %s);",
		EdgeTypeName(parent, child), parent, child,
	), nil
}

// relCreateStmt builds the statement connecting one parent node to one child
// node, matched by their primary-key values.
func relCreateStmt(parent, parentPK, child, childPK string, parentID, childID Value) (string, error) {
	if !validIdent(parentPK) || !validIdent(childPK) {
		return "", fmt.Errorf("invalid key column in edge %q -> %q", parent, child)
	}

	parentLit, err := Literal(parentID)
	if err != nil {
		return "", fmt.Errorf("failed to serialize parent key: %w", err)
	}

	childLit, err := Literal(childID)
	if err != nil {
		return "", fmt.Errorf("failed to serialize child key: %w", err)
	}

	return fmt.Sprintf(
		"MATCH (a:%s), (b:%s) WHERE a.%s = %s AND b.%s = %s CREATE (a)-[:%s]->(b);",
		parent, child, parentPK, parentLit, childPK, childLit, EdgeTypeName(parent, child),
	), nil
}

func nodeCountStmt(table string) string {
	return fmt.Sprintf("MATCH (n:%s) RETURN COUNT(n);", table)
}

func relCountStmt(rel string) string {
	return fmt.Sprintf("MATCH ()-[r:%s]->() RETURN COUNT(r);", rel)
}
