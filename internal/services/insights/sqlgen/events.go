package sqlgen

import (
	"strconv"
	"strings"

	"insights/internal/services/insights/domain"
)

// Event listing column aliases, built-ins follow under their own names
const (
	EventID        = "id"
	EventName      = "eventName"
	EventCreatedAt = "createdAt"
)

// Property listing column aliases
const (
	PropOwner    = "ownerId"
	PropKey      = "key"
	PropDataType = "dataType"
	PropNumber   = "numberValue"
	PropString   = "stringValue"
	PropDate     = "dateValue"
)

// BuildEvents compiles one page of the raw event listing, metrics are ignored
// and cursor may be nil for the first page
func BuildEvents(d Dialect, q domain.QueryDescriptor, cursor *domain.Cursor, limit int) (Statement, error) {
	if err := q.ValidateScope(); err != nil {
		return Statement{}, err
	}
	if limit < 1 || limit > domain.MaxEventLimit {
		return Statement{}, domain.InvalidDescriptorf("limit", "limit must be between 1 and %d, got %d", domain.MaxEventLimit, limit)
	}
	e, err := Resolve(q.InsightType)
	if err != nil {
		return Statement{}, err
	}
	b := newBuilder(e, d)

	selects := []string{
		b.col(e.ID) + " AS " + d.Alias(EventID),
		b.col(e.EventName) + " AS " + d.Alias(EventName),
		b.col(e.CreatedAt) + " AS " + d.Alias(EventCreatedAt),
	}
	for _, name := range e.BuiltIns {
		selects = append(selects, b.col(name)+" AS "+d.Alias(name))
	}

	join, err := b.join(q.Filters, q.Groups)
	if err != nil {
		return Statement{}, err
	}

	where := b.scopeAndRange(q)
	if cursor != nil {
		if cursor.ID == "" || cursor.CreatedAt.IsZero() {
			return Statement{}, domain.InvalidDescriptorf("cursor", "cursor is incomplete")
		}
		created, id := b.col(e.CreatedAt), b.col(e.ID)
		at := d.Time(b.args, cursor.CreatedAt)
		where = append(where, "("+created+" < "+at+" OR ("+created+" = "+at+" AND "+id+" < "+d.String(b.args, cursor.ID)+"))")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if join != "" {
		sb.WriteString("DISTINCT ")
	}
	sb.WriteString(strings.Join(selects, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(d.Alias(e.Table))
	if join != "" {
		sb.WriteString(" ")
		sb.WriteString(join)
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(strings.Join(where, " AND "))
	sb.WriteString(" ORDER BY ")
	sb.WriteString(d.Alias(EventCreatedAt) + " DESC, " + d.Alias(EventID) + " DESC")
	sb.WriteString(" LIMIT ")
	sb.WriteString(strconv.Itoa(limit))

	return Statement{SQL: sb.String(), Args: b.args.Values(), Backend: d.Backend()}, nil
}

// BuildProperties compiles the batched side-table fetch for a page of events
func BuildProperties(d Dialect, e Entity, ids []string) (Statement, error) {
	if len(ids) == 0 {
		return Statement{}, domain.InvalidDescriptorf("ids", "at least one event id is required")
	}
	if err := e.check(); err != nil {
		return Statement{}, err
	}
	b := newBuilder(e, d)

	in := make([]string, len(ids))
	for i, id := range ids {
		in[i] = d.String(b.args, id)
	}
	selects := []string{
		b.dataCol(e.Data.Owner) + " AS " + d.Alias(PropOwner),
		b.dataCol(e.Data.Key) + " AS " + d.Alias(PropKey),
		b.dataCol(e.Data.Type) + " AS " + d.Alias(PropDataType),
		b.dataCol(e.Data.Number) + " AS " + d.Alias(PropNumber),
		b.dataCol(e.Data.String) + " AS " + d.Alias(PropString),
		b.dataCol(e.Data.Date) + " AS " + d.Alias(PropDate),
	}

	sql := "SELECT " + strings.Join(selects, ", ") +
		" FROM " + d.Alias(e.Data.Table) +
		" WHERE " + b.dataCol(e.Data.Owner) + " IN (" + strings.Join(in, ", ") + ")"
	return Statement{SQL: sql, Args: b.args.Values(), Backend: d.Backend()}, nil
}
