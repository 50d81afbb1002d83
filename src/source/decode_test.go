package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relgraph/relgraph/src/migrate"
)

func TestNormalizeKind(t *testing.T) {
	cases := map[string]migrate.ColumnKind{
		"integer":                     migrate.ColInteger,
		"bigint":                      migrate.ColInteger,
		"smallint":                    migrate.ColInteger,
		"int":                         migrate.ColInteger,
		"int(11)":                     migrate.ColInteger,
		"tinyint(1)":                  migrate.ColInteger,
		"serial":                      migrate.ColInteger,
		"INTEGER":                     migrate.ColInteger,
		"numeric":                     migrate.ColFloat,
		"decimal(10,2)":               migrate.ColFloat,
		"double precision":            migrate.ColFloat,
		"real":                        migrate.ColFloat,
		"float8":                      migrate.ColFloat,
		"date":                        migrate.ColTemporal,
		"datetime":                    migrate.ColTemporal,
		"timestamp without time zone": migrate.ColTemporal,
		"timestamptz":                 migrate.ColTemporal,
		"text":                        migrate.ColOther,
		"character varying":           migrate.ColOther,
		"uuid":                        migrate.ColOther,
		"bytea":                       migrate.ColOther,
		"point":                       migrate.ColOther,
		"jsonb":                       migrate.ColOther,
	}

	for declared, want := range cases {
		require.Equal(t, want, normalizeKind(declared), "declared type %q", declared)
	}
}

func TestDecodeValueBasic(t *testing.T) {
	other := migrate.Column{Name: "c", Kind: migrate.ColOther, Declared: "text"}

	v, err := decodeValue(nil, other)
	require.NoError(t, err)
	require.True(t, v.IsNull())

	v, err = decodeValue(true, other)
	require.NoError(t, err)
	require.Equal(t, migrate.Bool(true), v)

	v, err = decodeValue(int64(42), other)
	require.NoError(t, err)
	require.Equal(t, migrate.Int(42), v)

	v, err = decodeValue("hello", other)
	require.NoError(t, err)
	require.Equal(t, migrate.Text("hello"), v)
}

func TestDecodeValueFloatStaysPlain(t *testing.T) {
	col := migrate.Column{Name: "c", Kind: migrate.ColFloat, Declared: "double precision"}

	v, err := decodeValue(0.0000001, col)
	require.NoError(t, err)
	require.Equal(t, migrate.Decimal("0.0000001"), v)

	lit, err := migrate.Literal(v)
	require.NoError(t, err)
	require.Equal(t, "0.0000001", lit)
}

func TestDecodeValueDecimalKeepsLexicalForm(t *testing.T) {
	col := migrate.Column{Name: "c", Kind: migrate.ColFloat, Declared: "numeric"}

	v, err := decodeValue([]byte("12345678901234567890.123456789"), col)
	require.NoError(t, err)
	require.Equal(t, migrate.Decimal("12345678901234567890.123456789"), v)
}

func TestDecodeValueNormalizesExponent(t *testing.T) {
	col := migrate.Column{Name: "c", Kind: migrate.ColFloat, Declared: "numeric"}

	v, err := decodeValue("1.5E+2", col)
	require.NoError(t, err)
	require.Equal(t, migrate.Decimal("150"), v)
}

func TestDecodeValueTextualInteger(t *testing.T) {
	col := migrate.Column{Name: "c", Kind: migrate.ColInteger, Declared: "int(11)"}

	v, err := decodeValue([]byte("7"), col)
	require.NoError(t, err)
	require.Equal(t, migrate.Int(7), v)

	_, err = decodeValue([]byte("seven"), col)
	require.Error(t, err)
}

func TestDecodeValueTemporal(t *testing.T) {
	dateCol := migrate.Column{Name: "c", Kind: migrate.ColTemporal, Declared: "date"}
	tsCol := migrate.Column{Name: "c", Kind: migrate.ColTemporal, Declared: "timestamp"}

	when := time.Date(2021, 6, 15, 13, 30, 0, 0, time.UTC)

	v, err := decodeValue(when, dateCol)
	require.NoError(t, err)
	require.Equal(t, migrate.Date(when), v)

	v, err = decodeValue(when, tsCol)
	require.NoError(t, err)
	require.Equal(t, migrate.Timestamp(when), v)

	v, err = decodeValue("2021-06-15", dateCol)
	require.NoError(t, err)
	require.True(t, v.DateOnly)

	v, err = decodeValue("2021-06-15 13:30:00", tsCol)
	require.NoError(t, err)
	require.Equal(t, migrate.KindTemporal, v.Kind)

	_, err = decodeValue("not a date", tsCol)
	require.Error(t, err)
}

func TestDecodeValueRejectsUnknownType(t *testing.T) {
	col := migrate.Column{Name: "c", Kind: migrate.ColOther}

	_, err := decodeValue(struct{}{}, col)
	require.Error(t, err)
}
