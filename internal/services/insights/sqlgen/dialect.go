// Package sqlgen compiles insights descriptors into backend specific SQL
package sqlgen

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"insights/internal/services/insights/domain"
)

// Args collects bind parameters for dialects that support them
type Args struct {
	values []any
}

// add appends v and returns its 1-based position
func (a *Args) add(v any) int {
	a.values = append(a.values, v)
	return len(a.values)
}

// Values returns the collected parameters
func (a *Args) Values() []any { return a.values }

// Dialect is the only place SQL text differs between backends
// the builder never branches on the backend itself
type Dialect interface {
	Backend() domain.Backend

	// Column renders a qualified column, both parts are already allow-listed
	Column(table, column string) string
	// Alias renders an output column name
	Alias(name string) string

	String(a *Args, s string) string
	Number(a *Args, f float64) string
	Time(a *Args, t time.Time) string

	// Blank is true when a text column is null or empty
	Blank(column string) string
	// Bucket truncates column to the start of its unit in tz
	Bucket(a *Args, column string, unit domain.Unit, tz string) string
}

// ForBackend returns the dialect for a backend
func ForBackend(b domain.Backend) (Dialect, error) {
	switch b {
	case domain.BackendPostgres:
		return Postgres{}, nil
	case domain.BackendClickhouse:
		return Clickhouse{}, nil
	}
	return nil, fmt.Errorf("sqlgen: unknown backend %q", b)
}

// Postgres binds every literal as a $n parameter and double quotes identifiers
type Postgres struct{}

var _ Dialect = Postgres{}

// Backend implements Dialect
func (Postgres) Backend() domain.Backend { return domain.BackendPostgres }

// Column implements Dialect
func (p Postgres) Column(table, column string) string {
	return p.Alias(table) + "." + p.Alias(column)
}

// Alias implements Dialect
func (Postgres) Alias(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// String implements Dialect
func (Postgres) String(a *Args, s string) string { return "$" + strconv.Itoa(a.add(s)) }

// Number implements Dialect
func (Postgres) Number(a *Args, f float64) string { return "$" + strconv.Itoa(a.add(f)) }

// Time implements Dialect
func (Postgres) Time(a *Args, t time.Time) string { return "$" + strconv.Itoa(a.add(t.UTC())) }

// Blank implements Dialect
func (Postgres) Blank(column string) string {
	return "(" + column + " IS NULL OR " + column + " = '')"
}

// Bucket implements Dialect, date_trunc with a zone needs postgres 12+
func (p Postgres) Bucket(a *Args, column string, unit domain.Unit, tz string) string {
	return "date_trunc('" + string(unit) + "', " + column + ", " + p.String(a, tz) + ")"
}

// Clickhouse inlines every literal through Quote and leaves identifiers bare
type Clickhouse struct{}

var _ Dialect = Clickhouse{}

// Backend implements Dialect
func (Clickhouse) Backend() domain.Backend { return domain.BackendClickhouse }

// Column implements Dialect
func (Clickhouse) Column(table, column string) string { return table + "." + column }

// Alias implements Dialect, aliases are allow-listed before they get here
func (Clickhouse) Alias(name string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(name) + `"`
}

// String implements Dialect
func (Clickhouse) String(_ *Args, s string) string { return Quote(s) }

// Number implements Dialect
func (Clickhouse) Number(_ *Args, f float64) string { return Number(f) }

// Time implements Dialect
func (Clickhouse) Time(_ *Args, t time.Time) string { return DateTime(t) }

// Blank implements Dialect
func (Clickhouse) Blank(column string) string { return "ifNull(" + column + ", '') = ''" }

// Bucket implements Dialect, Date results are lifted back to DateTime in tz so
// they land on local midnight instead of UTC midnight
func (Clickhouse) Bucket(_ *Args, column string, unit domain.Unit, tz string) string {
	local := "toTimeZone(" + column + ", " + Quote(tz) + ")"
	switch unit {
	case domain.UnitHour:
		return "toStartOfHour(" + local + ")"
	case domain.UnitWeek:
		return "toDateTime(toMonday(" + local + "), " + Quote(tz) + ")"
	case domain.UnitMonth:
		return "toDateTime(toStartOfMonth(" + local + "), " + Quote(tz) + ")"
	default:
		return "toStartOfDay(" + local + ")"
	}
}
