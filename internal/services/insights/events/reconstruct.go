package events

import (
	"context"
	"time"

	"github.com/samber/lo"

	"insights/internal/services/insights/domain"
	"insights/internal/services/insights/repo"
	"insights/internal/services/insights/sqlgen"
)

// Reconstructor runs the two listing round trips against one executor
type Reconstructor struct {
	exec         repo.Executor
	defaultLimit int
}

// New returns a Reconstructor, defaultLimit applies when a request names none
func New(exec repo.Executor, defaultLimit int) *Reconstructor {
	if defaultLimit <= 0 || defaultLimit > domain.MaxEventLimit {
		defaultLimit = domain.DefaultEventLimit
	}
	return &Reconstructor{exec: exec, defaultLimit: defaultLimit}
}

// Query lists one page of events newest first with their properties folded in
func (r *Reconstructor) Query(ctx context.Context, in domain.EventQueryInput) (domain.EventPage, error) {
	limit := in.Limit
	if limit == 0 {
		limit = r.defaultLimit
	}
	cursor, err := DecodeCursor(in.Cursor)
	if err != nil {
		return domain.EventPage{}, err
	}
	q := in.QueryDescriptor
	if q.Time.Unit == "" {
		// buckets play no part in listing
		q.Time.Unit = domain.UnitDay
	}

	e, err := sqlgen.Resolve(q.InsightType)
	if err != nil {
		return domain.EventPage{}, err
	}
	d := r.exec.Dialect()
	st, err := sqlgen.BuildEvents(d, q, cursor, limit)
	if err != nil {
		return domain.EventPage{}, err
	}

	rs, err := r.exec.Run(ctx, st)
	if err != nil {
		return domain.EventPage{}, err
	}
	events, err := ReadEvents(e, rs)
	if err != nil {
		return domain.EventPage{}, err
	}
	page := domain.EventPage{Events: events}
	if len(events) == 0 {
		page.Events = []domain.InsightEvent{}
		return page, nil
	}

	ids := lo.Uniq(lo.Map(events, func(ev domain.InsightEvent, _ int) string { return ev.ID }))
	pst, err := sqlgen.BuildProperties(d, e, ids)
	if err != nil {
		return domain.EventPage{}, err
	}
	prs, err := r.exec.Run(ctx, pst)
	if err != nil {
		return domain.EventPage{}, err
	}
	props, err := ReadProperties(prs)
	if err != nil {
		return domain.EventPage{}, err
	}
	page.Events = Fold(events, props)

	if len(events) == limit {
		last := events[len(events)-1]
		next, err := EncodeCursor(domain.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		if err != nil {
			return domain.EventPage{}, err
		}
		page.NextCursor = next
	}
	return page, nil
}

// ReadEvents maps listing rows to events whose properties hold only the built-ins
func ReadEvents(e sqlgen.Entity, rs domain.ResultSet) ([]domain.InsightEvent, error) {
	idIdx, nameIdx, atIdx := rs.Index(sqlgen.EventID), rs.Index(sqlgen.EventName), rs.Index(sqlgen.EventCreatedAt)
	if idIdx < 0 || nameIdx < 0 || atIdx < 0 {
		return nil, domain.LabelDecodef("event listing is missing id, eventName or createdAt")
	}
	builtIdx := make([]int, len(e.BuiltIns))
	for i, name := range e.BuiltIns {
		builtIdx[i] = rs.Index(name)
	}

	out := make([]domain.InsightEvent, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		at, ok := row[atIdx].(time.Time)
		if !ok {
			return nil, domain.LabelDecodef("event createdAt %v is not a timestamp", row[atIdx])
		}
		ev := domain.InsightEvent{
			ID:         domain.LiteralText(row[idIdx]),
			Name:       e.DefaultName,
			CreatedAt:  at.UTC(),
			Properties: make(map[string]any, len(e.BuiltIns)),
		}
		if name, ok := row[nameIdx].(string); ok && name != "" {
			ev.Name = name
		}
		for i, name := range e.BuiltIns {
			if builtIdx[i] >= 0 {
				ev.Properties[name] = row[builtIdx[i]]
			}
		}
		out = append(out, ev)
	}
	return out, nil
}

// ReadProperties maps side-table rows to properties
func ReadProperties(rs domain.ResultSet) ([]domain.Property, error) {
	idx := map[string]int{}
	for _, col := range []string{sqlgen.PropOwner, sqlgen.PropKey, sqlgen.PropDataType, sqlgen.PropNumber, sqlgen.PropString, sqlgen.PropDate} {
		i := rs.Index(col)
		if i < 0 {
			return nil, domain.LabelDecodef("property listing is missing %q", col)
		}
		idx[col] = i
	}

	out := make([]domain.Property, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		p := domain.Property{
			OwnerID: domain.LiteralText(row[idx[sqlgen.PropOwner]]),
			Key:     domain.LiteralText(row[idx[sqlgen.PropKey]]),
		}
		if n, ok := domain.AsNumber(row[idx[sqlgen.PropDataType]]); ok {
			p.DataType = domain.DataType(n)
		}
		if n, ok := domain.AsNumber(row[idx[sqlgen.PropNumber]]); ok {
			p.NumberValue = &n
		}
		if s, ok := row[idx[sqlgen.PropString]].(string); ok {
			p.StringValue = &s
		}
		if t, ok := row[idx[sqlgen.PropDate]].(time.Time); ok {
			p.DateValue = &t
		}
		out = append(out, p)
	}
	return out, nil
}

// Fold merges properties into their events, keys already present (the built-ins) are kept
func Fold(events []domain.InsightEvent, props []domain.Property) []domain.InsightEvent {
	byOwner := lo.GroupBy(props, func(p domain.Property) string { return p.OwnerID })
	for i := range events {
		ev := &events[i]
		if ev.Properties == nil {
			ev.Properties = map[string]any{}
		}
		for _, p := range byOwner[ev.ID] {
			if _, taken := ev.Properties[p.Key]; taken {
				continue
			}
			ev.Properties[p.Key] = value(p)
		}
	}
	return events
}

// value picks the column the data type names, unknown types read as strings
func value(p domain.Property) any {
	switch p.DataType {
	case domain.DataNumber:
		if p.NumberValue == nil {
			return nil
		}
		return *p.NumberValue
	case domain.DataDate:
		if p.DateValue == nil {
			return nil
		}
		return p.DateValue.UTC()
	}
	if p.StringValue == nil {
		return nil
	}
	return *p.StringValue
}
