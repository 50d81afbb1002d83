package migrate

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLiteralNull(t *testing.T) {
	lit, err := Literal(Null())
	require.NoError(t, err)
	require.Equal(t, "null", lit)
}

func TestLiteralBool(t *testing.T) {
	lit, err := Literal(Bool(true))
	require.NoError(t, err)
	require.Equal(t, "true", lit)

	lit, err = Literal(Bool(false))
	require.NoError(t, err)
	require.Equal(t, "false", lit)
}

func TestLiteralInt(t *testing.T) {
	lit, err := Literal(Int(-42))
	require.NoError(t, err)
	require.Equal(t, "-42", lit)

	back, err := strconv.ParseInt(lit, 10, 64)
	require.NoError(t, err)
	require.EqualValues(t, -42, back)
}

func TestLiteralDecimal(t *testing.T) {
	// arbitrary-precision values keep their exact text form
	lit, err := Literal(Decimal("12345678901234567890.123456789"))
	require.NoError(t, err)
	require.Equal(t, "12345678901234567890.123456789", lit)

	lit, err = Literal(Decimal("19.99"))
	require.NoError(t, err)
	require.Equal(t, "19.99", lit)

	lit, err = Literal(Decimal("-0.5"))
	require.NoError(t, err)
	require.Equal(t, "-0.5", lit)
}

func TestLiteralDecimalRejectsExponent(t *testing.T) {
	_, err := Literal(Decimal("1e10"))
	require.Error(t, err)

	_, err = Literal(Decimal(""))
	require.Error(t, err)

	_, err = Literal(Decimal("1.2.3"))
	require.Error(t, err)
}

func TestLiteralTemporal(t *testing.T) {
	lit, err := Literal(Date(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	require.Equal(t, "'2020-01-01'", lit)

	ts := time.Date(2021, 6, 15, 13, 30, 45, 0, time.UTC)
	lit, err = Literal(Timestamp(ts))
	require.NoError(t, err)
	require.Equal(t, "'2021-06-15T13:30:45Z'", lit)

	back, err := time.Parse(time.RFC3339, strings.Trim(lit, "'"))
	require.NoError(t, err)
	require.True(t, back.Equal(ts))
}

func TestLiteralText(t *testing.T) {
	lit, err := Literal(Text("Alice"))
	require.NoError(t, err)
	require.Equal(t, "'Alice'", lit)
}

func TestLiteralTextEscapesQuotes(t *testing.T) {
	lit, err := Literal(Text("O'Brien"))
	require.NoError(t, err)
	require.Equal(t, `'O\'Brien'`, lit)
}

func TestLiteralTextAdjacentQuotes(t *testing.T) {
	// each quote gets exactly one backslash, never a second pass
	lit, err := Literal(Text("a''b"))
	require.NoError(t, err)
	require.Equal(t, `'a\'\'b'`, lit)

	lit, err = Literal(Text("'''"))
	require.NoError(t, err)
	require.Equal(t, `'\'\'\''`, lit)
}

func TestLiteralTextPreservesBackslashes(t *testing.T) {
	lit, err := Literal(Text(`already \' escaped`))
	require.NoError(t, err)
	require.Equal(t, `'already \\' escaped'`, lit)
}

func TestLiteralUnknownKind(t *testing.T) {
	_, err := Literal(Value{Kind: ValueKind(99)})
	require.Error(t, err)
}

func TestLiteralAlwaysClosed(t *testing.T) {
	// every value serializes to a token with no unescaped quote inside
	values := []Value{
		Null(),
		Bool(true),
		Int(7),
		Decimal("3.14"),
		Timestamp(time.Now().UTC()),
		Text("it's got 'quotes' everywhere'''"),
	}

	for _, v := range values {
		lit, err := Literal(v)
		require.NoError(t, err)

		if !strings.HasPrefix(lit, "'") {
			require.NotContains(t, lit, "'")
			continue
		}

		require.True(t, strings.HasSuffix(lit, "'"))

		inner := lit[1 : len(lit)-1]
		for i := 0; i < len(inner); i++ {
			if inner[i] == '\'' {
				require.Greater(t, i, 0)
				require.Equal(t, byte('\\'), inner[i-1])
			}
		}
	}
}
