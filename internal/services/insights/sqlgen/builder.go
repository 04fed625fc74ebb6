package sqlgen

import (
	"strconv"
	"strings"

	"insights/internal/services/insights/domain"
	"insights/internal/services/insights/label"
)

// DateColumn is the bucket column every aggregate statement selects first
const DateColumn = "date"

// Statement is compiled SQL ready for an executor
type Statement struct {
	SQL     string
	Args    []any
	Backend domain.Backend

	// Labels are the encoded group columns in select order
	Labels []string
	// Metrics are the metric columns in declaration order
	Metrics []string
}

// builder assembles the clauses for one entity and dialect
type builder struct {
	e    Entity
	d    Dialect
	args *Args
}

func newBuilder(e Entity, d Dialect) *builder { return &builder{e: e, d: d, args: &Args{}} }

func (b *builder) col(name string) string { return b.d.Column(b.e.Table, name) }

func (b *builder) dataCol(name string) string { return b.d.Column(b.e.Data.Table, name) }

// Build compiles an aggregation descriptor
func Build(d Dialect, q domain.QueryDescriptor) (Statement, error) {
	if err := q.Validate(); err != nil {
		return Statement{}, err
	}
	e, err := Resolve(q.InsightType)
	if err != nil {
		return Statement{}, err
	}
	loc, err := q.Time.Location()
	if err != nil {
		return Statement{}, err
	}
	b := newBuilder(e, d)

	selects := []string{b.d.Bucket(b.args, b.col(e.CreatedAt), q.Time.Unit, loc.String()) + " AS " + b.d.Alias(DateColumn)}

	groupSel, labels, err := b.groupSelect(q.Groups)
	if err != nil {
		return Statement{}, err
	}
	selects = append(selects, groupSel...)

	metricSel, metrics, err := b.metricSelect(q.Metrics)
	if err != nil {
		return Statement{}, err
	}
	selects = append(selects, metricSel...)

	join, err := b.join(q.Filters, q.Groups)
	if err != nil {
		return Statement{}, err
	}

	where := b.scopeAndRange(q)
	where = append(where, b.metricDisjunction(q.Metrics))

	groupBy := []string{b.d.Alias(DateColumn)}
	for _, l := range labels {
		groupBy = append(groupBy, b.d.Alias(l))
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(selects, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.d.Alias(e.Table))
	if join != "" {
		sb.WriteString(" ")
		sb.WriteString(join)
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(strings.Join(where, " AND "))
	sb.WriteString(" GROUP BY ")
	sb.WriteString(strings.Join(groupBy, ", "))
	sb.WriteString(" ORDER BY ")
	sb.WriteString(b.d.Alias(DateColumn))

	return Statement{
		SQL:     sb.String(),
		Args:    b.args.Values(),
		Backend: d.Backend(),
		Labels:  labels,
		Metrics: metrics,
	}, nil
}

// metricSelect emits one aggregate per metric aliased by its name
func (b *builder) metricSelect(metrics []domain.Metric) ([]string, []string, error) {
	cols := make([]string, 0, len(metrics))
	names := make([]string, 0, len(metrics))
	for _, m := range metrics {
		if m.Name == DateColumn || label.IsLabel(m.Name) {
			return nil, nil, domain.InvalidDescriptorf("metrics.name", "metric name %q is reserved", m.Name)
		}
		if err := checkAlias("metrics.name", m.Name); err != nil {
			return nil, nil, err
		}
		cond, err := b.metricCondition(m)
		if err != nil {
			return nil, nil, err
		}

		var expr string
		switch m.Math {
		case domain.MathEvents:
			expr = "count(*)"
			if cond != "" {
				expr = "count(CASE WHEN " + cond + " THEN 1 END)"
			}
		case domain.MathSessions:
			expr = "count(DISTINCT " + b.col(b.e.Session) + ")"
			if cond != "" {
				expr = "count(DISTINCT CASE WHEN " + cond + " THEN " + b.col(b.e.Session) + " END)"
			}
		default:
			return nil, nil, domain.InvalidMetricf("metrics.math", "unknown math %q for metric %q", m.Math, m.Name)
		}
		cols = append(cols, expr+" AS "+b.d.Alias(m.Name))
		names = append(names, m.Name)
	}
	return cols, names, nil
}

// metricCondition is the row predicate a metric counts, empty means every row
func (b *builder) metricCondition(m domain.Metric) (string, error) {
	switch m.Name {
	case domain.MetricAllEvent:
		return "", nil
	case domain.MetricPageView:
		pv, err := b.pageView()
		if err != nil {
			return "", err
		}
		return b.d.Blank(b.col(b.e.EventName)) + " AND " + pv, nil
	}
	return b.col(b.e.EventName) + " = " + b.d.String(b.args, m.Name), nil
}

func (b *builder) pageView() (string, error) {
	if b.e.PageView == nil {
		return "", domain.InvalidMetricf("metrics.name", "%s has no page view events", b.e.Name)
	}
	return b.col(b.e.PageView.TypeColumn) + " = " + strconv.Itoa(b.e.PageView.Value), nil
}

// metricDisjunction keeps only rows some metric can count
func (b *builder) metricDisjunction(metrics []domain.Metric) string {
	parts := make([]string, 0, len(metrics))
	for _, m := range metrics {
		switch m.Name {
		case domain.MetricAllEvent:
			parts = append(parts, "1 = 1")
		case domain.MetricPageView:
			// pageView cannot fail here, metricSelect already resolved it
			pv, _ := b.pageView()
			parts = append(parts, pv)
		default:
			parts = append(parts, b.col(b.e.EventName)+" = "+b.d.String(b.args, m.Name))
		}
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// join attaches the property side table when filters or groups need it
func (b *builder) join(filters []domain.Filter, groups []domain.Group) (string, error) {
	if len(filters) == 0 && len(groups) == 0 {
		return "", nil
	}
	on := []string{b.col(b.e.ID) + " = " + b.dataCol(b.e.Data.Owner)}

	for _, f := range filters {
		valueCol, ok := b.e.ValueColumn(f.Type)
		if !ok {
			return "", domain.UnsupportedOperatorf("filters.type", "operator %q is not supported for %q values", f.Operator, f.Type)
		}
		pred, err := Compile(b.d, b.args, f.Type, f.Operator, f.Value, b.dataCol(valueCol))
		if err != nil {
			return "", err
		}
		if f.Name != "" {
			pred = "(" + b.dataCol(b.e.Data.Key) + " = " + b.d.String(b.args, f.Name) + " AND " + pred + ")"
		}
		on = append(on, pred)
	}

	if len(groups) > 0 {
		keys := make([]string, 0, len(groups))
		for _, g := range groups {
			keys = append(keys, b.dataCol(b.e.Data.Key)+" = "+b.d.String(b.args, g.Value))
		}
		on = append(on, "("+strings.Join(keys, " OR ")+")")
	}

	return "INNER JOIN " + b.d.Alias(b.e.Data.Table) + " ON " + strings.Join(on, " AND "), nil
}

// scopeAndRange is the entity scope plus the inclusive UTC window
func (b *builder) scopeAndRange(q domain.QueryDescriptor) []string {
	created := b.col(b.e.CreatedAt)
	return []string{
		b.col(b.e.Scope) + " = " + b.d.String(b.args, q.InsightID),
		created + " BETWEEN " + b.d.Time(b.args, q.Time.StartAt) + " AND " + b.d.Time(b.args, q.Time.EndAt),
	}
}
