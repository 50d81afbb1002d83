package migrate

// PropertyType is a graph-store property primitive.
type PropertyType string

const (
	PropInteger   PropertyType = "INTEGER"
	PropDouble    PropertyType = "DOUBLE"
	PropTimestamp PropertyType = "TIMESTAMP"
	PropString    PropertyType = "STRING"
)

// PropertyTypeOf maps a relational column category to its graph property
// primitive. The mapping is total: anything outside the integer, float and
// temporal families falls through to STRING, which can hold any value.
func PropertyTypeOf(k ColumnKind) PropertyType {
	switch k {
	case ColInteger:
		return PropInteger
	case ColFloat:
		return PropDouble
	case ColTemporal:
		return PropTimestamp
	default:
		return PropString
	}
}
