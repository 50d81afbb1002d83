package migrate

import (
	"fmt"
	"time"
)

// ColumnKind is the normalized category of a relational column's declared
// type. The relational reflector decides it once, from the source's own type
// name; everything downstream dispatches on the category only.
type ColumnKind uint8

const (
	ColOther ColumnKind = iota
	ColInteger
	ColFloat
	ColTemporal
)

func (k ColumnKind) String() string {
	switch k {
	case ColInteger:
		return "integer"
	case ColFloat:
		return "float"
	case ColTemporal:
		return "temporal"
	default:
		return "other"
	}
}

// Column describes one reflected relational column.
type Column struct {
	Name     string
	Kind     ColumnKind
	Declared string // the source's own type name, kept for diagnostics
	Nullable bool
}

// Table describes one reflected relational table. Columns preserve the
// source's ordinal order; PrimaryKeys holds the PK column names.
type Table struct {
	Schema      string
	Name        string
	Columns     []Column
	PrimaryKeys []string
}

// SinglePrimaryKey returns the table's only primary-key column name.
// The second return is false unless the table has exactly one PK column.
func (t Table) SinglePrimaryKey() (string, bool) {
	if len(t.PrimaryKeys) != 1 {
		return "", false
	}

	return t.PrimaryKeys[0], true
}

// ColumnNamed returns the table's column with the given name.
func (t Table) ColumnNamed(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}

	return Column{}, false
}

// ForeignKey describes one reflected single-column foreign-key constraint.
type ForeignKey struct {
	Table     string // referencing (child) table
	Column    string // referencing column
	RefTable  string // referenced (parent) table
	RefColumn string // referenced column, the parent's primary key
}

// ValueKind tags a Value with its category. Categories are assigned once at
// the relational read boundary; the serializer matches on them exhaustively.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindDecimal
	KindTemporal
	KindText
)

// Value is a tagged variant holding one relational runtime value.
//
// Decimal carries the value's exact decimal text form (no exponent), so
// arbitrary-precision numerics survive the trip without rounding. Temporal
// values remember whether the source column was date-only, which changes the
// serialized form.
type Value struct {
	Kind ValueKind

	Bool     bool
	Int      int64
	Decimal  string
	Time     time.Time
	DateOnly bool
	Text     string
}

func Null() Value               { return Value{Kind: KindNull} }
func Bool(b bool) Value         { return Value{Kind: KindBool, Bool: b} }
func Int(i int64) Value         { return Value{Kind: KindInt, Int: i} }
func Decimal(text string) Value { return Value{Kind: KindDecimal, Decimal: text} }
func Text(s string) Value       { return Value{Kind: KindText, Text: s} }

func Timestamp(t time.Time) Value {
	return Value{Kind: KindTemporal, Time: t}
}

func Date(t time.Time) Value {
	return Value{Kind: KindTemporal, Time: t, DateOnly: true}
}

func (v Value) IsNull() bool { return v.Kind == KindNull }

func (v Value) String() string {
	lit, err := Literal(v)
	if err != nil {
		return fmt.Sprintf("<invalid value kind %d>", v.Kind)
	}

	return lit
}
