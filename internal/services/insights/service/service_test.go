package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insights/internal/services/insights/domain"
	"insights/internal/services/insights/sqlgen"
)

type stubExec struct {
	dialect sqlgen.Dialect
	results []domain.ResultSet
	err     error
	calls   []sqlgen.Statement
}

func (s *stubExec) Dialect() sqlgen.Dialect {
	if s.dialect == nil {
		return sqlgen.Postgres{}
	}
	return s.dialect
}

func (s *stubExec) Run(_ context.Context, st sqlgen.Statement) (domain.ResultSet, error) {
	s.calls = append(s.calls, st)
	if s.err != nil {
		return domain.ResultSet{}, s.err
	}
	if len(s.results) == 0 {
		return domain.ResultSet{Columns: []string{"date"}}, nil
	}
	rs := s.results[0]
	s.results = s.results[1:]
	return rs, nil
}

var (
	day0 = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	day2 = day0.AddDate(0, 0, 2)
)

func descriptor() domain.QueryDescriptor {
	return domain.QueryDescriptor{
		InsightID:   "site-1",
		InsightType: domain.InsightWebsite,
		Metrics:     []domain.Metric{{Name: domain.MetricAllEvent, Math: domain.MathEvents}},
		Time:        domain.TimeWindow{StartAt: day0, EndAt: day2, Unit: domain.UnitDay, Timezone: "UTC"},
	}
}

func TestNew_PanicsWithoutExecutor(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { New(nil, Options{}) })
}

func TestRunAggregateQuery_Scenario(t *testing.T) {
	t.Parallel()

	ex := &stubExec{results: []domain.ResultSet{{
		Columns: []string{"date", "$all_event"},
		Rows:    [][]any{{day0, int64(2)}},
	}}}
	got, err := New(ex, Options{}).RunAggregateQuery(context.Background(), descriptor())
	require.NoError(t, err)
	require.Len(t, ex.calls, 1)
	assert.Equal(t, domain.BackendPostgres, ex.calls[0].Backend)

	require.Len(t, got.Series, 1)
	assert.Equal(t, []int64{2, 0, 0}, got.Series[0].Values)
	assert.Equal(t, 3, got.Len())
}

func TestRunAggregateQuery_CompileErrorsNeverReachBackend(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		mut  func(*domain.QueryDescriptor)
		kind error
	}{
		{"string between", func(q *domain.QueryDescriptor) {
			q.Filters = []domain.Filter{{Name: "plan", Type: domain.FilterString, Operator: "between", Value: domain.Range("a", "b")}}
		}, domain.ErrUnsupportedOperator},
		{"no metrics", func(q *domain.QueryDescriptor) { q.Metrics = nil }, domain.ErrInvalidDescriptor},
		{"end before start", func(q *domain.QueryDescriptor) { q.Time.EndAt = day0.Add(-time.Hour) }, domain.ErrInvalidDescriptor},
		{"unknown math", func(q *domain.QueryDescriptor) { q.Metrics[0].Math = "users" }, domain.ErrInvalidMetric},
		{"unknown entity", func(q *domain.QueryDescriptor) { q.InsightType = "monitor" }, domain.ErrUnknownEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ex := &stubExec{}
			q := descriptor()
			tc.mut(&q)
			_, err := New(ex, Options{}).RunAggregateQuery(context.Background(), q)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.kind), "%v", err)
			assert.Empty(t, ex.calls)
		})
	}
}

func TestRunAggregateQuery_BucketCap(t *testing.T) {
	t.Parallel()

	q := descriptor()
	q.Time.EndAt = day0.AddDate(0, 0, 30)
	_, err := New(&stubExec{}, Options{MaxBuckets: 10}).RunAggregateQuery(context.Background(), q)
	assert.ErrorIs(t, err, domain.ErrInvalidDescriptor)
}

// the metric tests share package level collectors so they do not run in parallel

func TestRunAggregateQuery_CountsFailuresByStage(t *testing.T) {
	compile := queryErrors.WithLabelValues("postgres", kindAggregate, stageCompile)
	execute := queryErrors.WithLabelValues("postgres", kindAggregate, stageExecute)
	shape := queryErrors.WithLabelValues("postgres", kindAggregate, stageShape)
	c0, e0, s0 := testutil.ToFloat64(compile), testutil.ToFloat64(execute), testutil.ToFloat64(shape)

	q := descriptor()
	q.Metrics = nil
	_, err := New(&stubExec{}, Options{}).RunAggregateQuery(context.Background(), q)
	require.Error(t, err)

	boom := domain.ExecFailed(domain.BackendPostgres, errors.New("connection reset"))
	_, err = New(&stubExec{err: boom}, Options{}).RunAggregateQuery(context.Background(), descriptor())
	require.ErrorIs(t, err, domain.ErrQueryExecutionFailed)

	bad := &stubExec{results: []domain.ResultSet{{Columns: []string{"$all_event"}}}}
	_, err = New(bad, Options{}).RunAggregateQuery(context.Background(), descriptor())
	require.ErrorIs(t, err, domain.ErrLabelDecode)

	assert.Equal(t, c0+1, testutil.ToFloat64(compile))
	assert.Equal(t, e0+1, testutil.ToFloat64(execute))
	assert.Equal(t, s0+1, testutil.ToFloat64(shape))
}

func TestRunEventQuery_DelegatesAndCounts(t *testing.T) {
	execute := queryErrors.WithLabelValues("postgres", kindEvents, stageExecute)
	e0 := testutil.ToFloat64(execute)

	cols := append([]string{"id", "eventName", "createdAt"}, sqlgen.Website.BuiltIns...)
	ex := &stubExec{results: []domain.ResultSet{{Columns: cols}}}
	in := domain.EventQueryInput{QueryDescriptor: descriptor()}
	page, err := New(ex, Options{EventsPageLimit: 10}).RunEventQuery(context.Background(), in)
	require.NoError(t, err)
	assert.NotNil(t, page.Events)
	assert.Contains(t, ex.calls[0].SQL, "LIMIT 10")

	boom := domain.ExecFailed(domain.BackendPostgres, errors.New("timeout"))
	_, err = New(&stubExec{err: boom}, Options{}).RunEventQuery(context.Background(), in)
	require.ErrorIs(t, err, domain.ErrQueryExecutionFailed)
	assert.Equal(t, e0+1, testutil.ToFloat64(execute))
}

func TestStageOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, stageExecute, stageOf(domain.ExecFailed(domain.BackendClickhouse, errors.New("x"))))
	assert.Equal(t, stageShape, stageOf(domain.LabelDecodef("bad")))
	assert.Equal(t, stageCompile, stageOf(domain.InvalidDescriptorf("limit", "bad")))
}
