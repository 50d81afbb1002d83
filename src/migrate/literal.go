package migrate

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05.999999Z07:00"
)

// Literal renders a Value as a literal ready to be embedded into a graph
// query. The result is always a closed token: unquoted for null, boolean and
// numeric values, single-quoted with escaped embedded quotes for everything
// else.
func Literal(v Value) (string, error) {
	switch v.Kind {
	case KindNull:
		return "null", nil
	case KindBool:
		return strconv.FormatBool(v.Bool), nil
	case KindInt:
		return strconv.FormatInt(v.Int, 10), nil
	case KindDecimal:
		return decimalLiteral(v.Decimal)
	case KindTemporal:
		if v.DateOnly {
			return "'" + v.Time.Format(dateLayout) + "'", nil
		}

		return "'" + v.Time.Format(timestampLayout) + "'", nil
	case KindText:
		return "'" + escapeQuotes(v.Text) + "'", nil
	default:
		return "", fmt.Errorf("unknown value kind %d", v.Kind)
	}
}

// escapeQuotes prefixes every single quote with a backslash, in one pass.
// Each quote gets exactly one backslash, adjacent quotes included: `''`
// becomes `\'\'`, never `\\''`.
func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

// decimalLiteral validates that the stored decimal text is a plain decimal
// number. The read boundary only produces such text, so a failure here means
// a value of unknown origin leaked into the decimal kind.
func decimalLiteral(text string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("empty decimal literal")
	}

	rest := strings.TrimPrefix(strings.TrimPrefix(text, "-"), "+")
	dots := 0

	for _, r := range rest {
		switch {
		case r >= '0' && r <= '9':
		case r == '.':
			dots++
			if dots > 1 {
				return "", fmt.Errorf("malformed decimal literal %q", text)
			}
		default:
			return "", fmt.Errorf("malformed decimal literal %q", text)
		}
	}

	if rest == "" || rest == "." {
		return "", fmt.Errorf("malformed decimal literal %q", text)
	}

	return text, nil
}
