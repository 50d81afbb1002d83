package source

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/relgraph/relgraph/src/migrate"
)

var integerTypes = []string{
	"bigint", "smallint", "mediumint", "tinyint", "integer",
	"int2", "int4", "int8", "int(", "serial", "year",
}

var decimalTypes = []string{
	"numeric", "decimal", "real", "double", "float", "money",
}

var temporalTypes = []string{
	"date", "time", // covers datetime, timestamp, timestamptz
}

// normalizeKind folds a dialect's declared type name into the closed column
// category set. Unrecognized types land in ColOther and migrate as strings.
func normalizeKind(declared string) migrate.ColumnKind {
	t := strings.ToLower(strings.TrimSpace(declared))

	switch {
	case t == "int" || hasAny(t, integerTypes):
		return migrate.ColInteger
	case hasAny(t, decimalTypes):
		return migrate.ColFloat
	case hasAny(t, temporalTypes):
		return migrate.ColTemporal
	default:
		return migrate.ColOther
	}
}

func hasAny(t string, families []string) bool {
	for _, f := range families {
		if strings.Contains(t, f) {
			return true
		}
	}

	return false
}

// isDateOnly reports whether a declared temporal type carries no time part.
func isDateOnly(declared string) bool {
	return strings.ToLower(strings.TrimSpace(declared)) == "date"
}

// Layouts drivers hand back textual temporals in.
var temporalLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// decodeValue converts one raw driver value into a tagged Value. The column
// it came from decides how ambiguous representations are read: drivers hand
// decimals and (depending on settings) most other types back as text.
func decodeValue(raw any, col migrate.Column) (migrate.Value, error) {
	switch v := raw.(type) {
	case nil:
		return migrate.Null(), nil
	case bool:
		return migrate.Bool(v), nil
	case int64:
		return migrate.Int(v), nil
	case float64:
		return migrate.Decimal(strconv.FormatFloat(v, 'f', -1, 64)), nil
	case time.Time:
		if isDateOnly(col.Declared) {
			return migrate.Date(v), nil
		}

		return migrate.Timestamp(v), nil
	case []byte:
		return decodeText(string(v), col)
	case string:
		return decodeText(v, col)
	default:
		return migrate.Value{}, fmt.Errorf("unsupported driver value of type %T", raw)
	}
}

func decodeText(text string, col migrate.Column) (migrate.Value, error) {
	switch col.Kind {
	case migrate.ColInteger:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return migrate.Value{}, fmt.Errorf("malformed integer %q: %w", text, err)
		}

		return migrate.Int(i), nil
	case migrate.ColFloat:
		// keep the lexical form; parsing to float64 could lose precision
		return migrate.Decimal(normalizeDecimal(text)), nil
	case migrate.ColTemporal:
		for _, layout := range temporalLayouts {
			if t, err := time.Parse(layout, text); err == nil {
				if isDateOnly(col.Declared) {
					return migrate.Date(t), nil
				}

				return migrate.Timestamp(t), nil
			}
		}

		return migrate.Value{}, fmt.Errorf("malformed temporal %q", text)
	default:
		return migrate.Text(text), nil
	}
}

// normalizeDecimal rewrites exponent notation into plain decimal text so the
// literal never reaches the store in scientific form. Values already in
// plain form pass through untouched.
func normalizeDecimal(text string) string {
	if !strings.ContainsAny(text, "eE") {
		return text
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return text
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}
