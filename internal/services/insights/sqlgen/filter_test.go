package sqlgen

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insights/internal/services/insights/domain"
)

func TestCompile_Clickhouse(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	cases := []struct {
		typ  domain.FilterType
		op   string
		val  *domain.FilterValue
		want string
	}{
		{domain.FilterNumber, "equals", domain.Scalar(3), "c = 3"},
		{domain.FilterNumber, "notEquals", domain.Scalar(3.5), "c <> 3.5"},
		{domain.FilterNumber, "greater", domain.Scalar(json.Number("10")), "c > 10"},
		{domain.FilterNumber, "greaterOrEqual", domain.Scalar(10), "c >= 10"},
		{domain.FilterNumber, "less", domain.Scalar(-1), "c < -1"},
		{domain.FilterNumber, "lessOrEqual", domain.Scalar(0), "c <= 0"},
		{domain.FilterNumber, "between", domain.Range(1, 2), "(c BETWEEN 1 AND 2)"},
		{domain.FilterString, "equals", domain.Scalar("o'neil"), `c = 'o\'neil'`},
		{domain.FilterString, "notEquals", domain.Scalar("x"), "c <> 'x'"},
		{domain.FilterString, "contains", domain.Scalar("50%"), `c LIKE '%50\\%%'`},
		{domain.FilterString, "notContains", domain.Scalar("a"), `c NOT LIKE '%a%'`},
		{domain.FilterString, "startsWith", domain.Scalar("/blog"), `c LIKE '/blog%'`},
		{domain.FilterString, "endsWith", domain.Scalar(".pdf"), `c LIKE '%.pdf'`},
		{domain.FilterDate, "before", domain.Scalar(day.Format(time.RFC3339)), "c < toDateTime64('2024-03-01 12:30:00.000000000', 9, 'UTC')"},
		{domain.FilterDate, "after", domain.Scalar("2024-03-01"), "c > toDateTime64('2024-03-01 00:00:00.000000000', 9, 'UTC')"},
		{domain.FilterDate, "between", domain.Range("2024-03-01", "2024-03-02"),
			"(c BETWEEN toDateTime64('2024-03-01 00:00:00.000000000', 9, 'UTC') AND toDateTime64('2024-03-02 00:00:00.000000000', 9, 'UTC'))"},
	}

	for _, tc := range cases {
		t.Run(string(tc.typ)+"/"+tc.op, func(t *testing.T) {
			t.Parallel()
			got, err := Compile(Clickhouse{}, &Args{}, tc.typ, tc.op, tc.val, "c")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCompile_PostgresBindsLiterals(t *testing.T) {
	t.Parallel()

	a := &Args{}
	a.add("already")

	got, err := Compile(Postgres{}, a, domain.FilterString, "startsWith", domain.Scalar("a_b"), `"t"."c"`)
	require.NoError(t, err)
	assert.Equal(t, `"t"."c" LIKE $2`, got)
	assert.Equal(t, []any{"already", `a\_b%`}, a.Values())

	got, err = Compile(Postgres{}, a, domain.FilterDate, "between", domain.Range("2024-01-01", "2024-01-02"), "d")
	require.NoError(t, err)
	assert.Equal(t, "(d BETWEEN $3 AND $4)", got)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), a.Values()[2])
}

func TestCompile_Rejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		typ  domain.FilterType
		op   string
		val  *domain.FilterValue
		kind error
	}{
		{"unknown operator", domain.FilterNumber, "contains", domain.Scalar(1), domain.ErrUnsupportedOperator},
		{"unknown type", "bool", "equals", domain.Scalar(true), domain.ErrUnsupportedOperator},
		{"null value", domain.FilterString, "equals", nil, domain.ErrInvalidDescriptor},
		{"missing bound", domain.FilterNumber, "between", domain.Scalar(1), domain.ErrInvalidDescriptor},
		{"string on number", domain.FilterNumber, "equals", domain.Scalar("ten"), domain.ErrInvalidDescriptor},
		{"nan", domain.FilterNumber, "equals", domain.Scalar(math.NaN()), domain.ErrInvalidDescriptor},
		{"bad date", domain.FilterDate, "before", domain.Scalar("yesterday"), domain.ErrInvalidDescriptor},
		{"bool on string", domain.FilterString, "equals", domain.Scalar(true), domain.ErrInvalidDescriptor},
		{"numeric string on number", domain.FilterNumber, "greater", domain.Scalar("10"), domain.ErrInvalidDescriptor},
		{"number on string", domain.FilterString, "equals", domain.Scalar(42), domain.ErrInvalidDescriptor},
		{"numeric string in range", domain.FilterNumber, "between", domain.Range(1, "2"), domain.ErrInvalidDescriptor},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Compile(Clickhouse{}, &Args{}, tc.typ, tc.op, tc.val, "c")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.kind), "%v", err)
		})
	}
}

func TestOperators(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"after", "before", "between"}, Operators(domain.FilterDate))
	assert.True(t, Supported(domain.FilterString, "contains"))
	assert.False(t, Supported(domain.FilterDate, "equals"))
	assert.Empty(t, Operators("bool"))
}

func TestQuote(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `'a\\b\'c\0'`, Quote("a\\b'c\x00"))
	assert.Equal(t, `100\%\_\\`, EscapeLike(`100%_\`))
	assert.Equal(t, "1.25", Number(1.25))
	assert.Equal(t, "toDateTime64('2024-01-01 01:00:00.000000000', 9, 'UTC')",
		DateTime(time.Date(2024, 1, 1, 2, 0, 0, 0, time.FixedZone("x", 3600))))
}
