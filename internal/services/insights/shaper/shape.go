package shaper

import (
	"math"
	"strconv"
	"strings"
	"time"

	"insights/internal/services/insights/domain"
	"insights/internal/services/insights/label"
	"insights/internal/services/insights/sqlgen"
)

// Shaper reshapes aggregate result sets, the zero value uses DefaultMaxBuckets
type Shaper struct {
	MaxBuckets int
}

// New returns a Shaper with a bucket cap
func New(maxBuckets int) Shaper { return Shaper{MaxBuckets: maxBuckets} }

// labelColumn is a decoded group column and its position in the row
type labelColumn struct {
	idx int
	l   label.Label
}

// seriesKey identifies one output series
type seriesKey struct {
	metric int
	group  string
}

// Shape fills the grid for every observed (group, metric) pair, missing buckets are 0
func (s Shaper) Shape(rs domain.ResultSet, q domain.QueryDescriptor) (domain.SeriesResult, error) {
	if err := q.Time.Validate(); err != nil {
		return domain.SeriesResult{}, err
	}
	c, err := newCalendar(q.Time)
	if err != nil {
		return domain.SeriesResult{}, err
	}
	limit := s.MaxBuckets
	if limit <= 0 {
		limit = DefaultMaxBuckets
	}
	dates, err := c.grid(q.Time.StartAt, q.Time.EndAt, limit)
	if err != nil {
		return domain.SeriesResult{}, err
	}
	pos := make(map[int64]int, len(dates))
	for i, d := range dates {
		pos[d.Unix()] = i
	}

	dateIdx, labels, metricIdx, err := layout(rs, q.Metrics)
	if err != nil {
		return domain.SeriesResult{}, err
	}

	// groups in first-seen order, values per (metric, group)
	var order []string
	keys := map[string]domain.GroupKey{}
	values := map[seriesKey][]int64{}

	for _, row := range rs.Rows {
		bucket, ok := asTime(row[dateIdx])
		if !ok {
			return domain.SeriesResult{}, domain.LabelDecodef("bucket %v is not a timestamp", row[dateIdx])
		}
		i, ok := pos[c.floor(bucket).Unix()]
		if !ok {
			continue
		}

		key := groupKey(row, labels)
		id := key.ID()
		if _, seen := keys[id]; !seen {
			keys[id] = key
			order = append(order, id)
		}
		for m, col := range metricIdx {
			sk := seriesKey{metric: m, group: id}
			vs := values[sk]
			if vs == nil {
				vs = make([]int64, len(dates))
				values[sk] = vs
			}
			vs[i] += asCount(row[col])
		}
	}

	if len(order) == 0 {
		order = []string{""}
		keys[""] = nil
	}

	out := domain.SeriesResult{Dates: dates}
	used := map[string]bool{}
	for m, metric := range q.Metrics {
		for _, id := range order {
			vs := values[seriesKey{metric: m, group: id}]
			if vs == nil {
				vs = make([]int64, len(dates))
			}
			out.Series = append(out.Series, domain.Series{
				Name:   uniqueName(used, domain.SeriesName(metric.Name, keys[id])),
				Metric: metric.Name,
				Group:  keys[id],
				Values: vs,
			})
		}
	}
	return out, nil
}

// uniqueName suffixes name with #2, #3... until it is unused, distinct groups may render alike
func uniqueName(used map[string]bool, name string) string {
	out := name
	for n := 2; used[out]; n++ {
		out = name + " #" + strconv.Itoa(n)
	}
	used[out] = true
	return out
}

// layout locates the date, label and metric columns
func layout(rs domain.ResultSet, metrics []domain.Metric) (int, []labelColumn, []int, error) {
	dateIdx := rs.Index(sqlgen.DateColumn)
	if dateIdx < 0 {
		return 0, nil, nil, domain.LabelDecodef("result has no %q column", sqlgen.DateColumn)
	}
	var labels []labelColumn
	for i, col := range rs.Columns {
		if !label.IsLabel(col) {
			continue
		}
		l, err := label.Decode(col)
		if err != nil {
			return 0, nil, nil, err
		}
		labels = append(labels, labelColumn{idx: i, l: l})
	}
	metricIdx := make([]int, len(metrics))
	for m, metric := range metrics {
		idx := rs.Index(metric.Name)
		if idx < 0 {
			return 0, nil, nil, domain.LabelDecodef("result has no column for metric %q", metric.Name)
		}
		metricIdx[m] = idx
	}
	return dateIdx, labels, metricIdx, nil
}

// groupKey reads the row's group parts, a custom group joins the key only when its predicate held
func groupKey(row []any, labels []labelColumn) domain.GroupKey {
	var key domain.GroupKey
	for _, lc := range labels {
		v := row[lc.idx]
		if v == nil {
			continue
		}
		if lc.l.Custom() {
			if truthy(v) {
				key = append(key, domain.GroupPart{Group: lc.l.Group, Operator: lc.l.Operator, Value: lc.l.Value})
			}
			continue
		}
		key = append(key, domain.GroupPart{Group: lc.l.Group, Value: domain.LiteralText(v)})
	}
	return key
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		b, err := strconv.ParseBool(x)
		return err == nil && b
	}
	return false
}

func asCount(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case float64:
		return int64(math.Round(x))
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n
	}
	return 0
}

func asTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		for _, f := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(f, x); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
