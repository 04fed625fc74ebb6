package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insights/internal/services/insights/domain"
	"insights/internal/services/insights/sqlgen"
)

// stubExec answers queued result sets in order and records each statement
type stubExec struct {
	results []domain.ResultSet
	err     error
	calls   []sqlgen.Statement
}

func (s *stubExec) Dialect() sqlgen.Dialect { return sqlgen.Postgres{} }

func (s *stubExec) Run(_ context.Context, st sqlgen.Statement) (domain.ResultSet, error) {
	s.calls = append(s.calls, st)
	if s.err != nil {
		return domain.ResultSet{}, s.err
	}
	rs := s.results[0]
	s.results = s.results[1:]
	return rs, nil
}

var (
	t1 = time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	t0 = t1.Add(-time.Hour)
)

func eventCols() []string {
	return append([]string{"id", "eventName", "createdAt"}, sqlgen.Website.BuiltIns...)
}

func eventRow(id string, name any, at time.Time, session string) []any {
	row := []any{id, name, at, session}
	for range sqlgen.Website.BuiltIns[1:] {
		row = append(row, nil)
	}
	return row
}

func propCols() []string {
	return []string{"ownerId", "key", "dataType", "numberValue", "stringValue", "dateValue"}
}

func input() domain.EventQueryInput {
	return domain.EventQueryInput{
		QueryDescriptor: domain.QueryDescriptor{
			InsightID:   "site-1",
			InsightType: domain.InsightWebsite,
			Time:        domain.TimeWindow{StartAt: t0.Add(-24 * time.Hour), EndAt: t1},
		},
		Limit: 2,
	}
}

func TestQuery_FoldsPropertiesAndPages(t *testing.T) {
	t.Parallel()

	born := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	ex := &stubExec{results: []domain.ResultSet{
		{Columns: eventCols(), Rows: [][]any{
			eventRow("e2", "signup", t1, "s1"),
			eventRow("e1", nil, t0, "s1"),
		}},
		{Columns: propCols(), Rows: [][]any{
			{"e2", "plan", int64(2), nil, "pro", nil},
			{"e2", "seats", int64(1), 3.0, nil, nil},
			{"e2", "born", int64(3), nil, nil, born},
			{"e2", "sessionId", int64(2), nil, "spoofed", nil},
			{"e1", "odd", int64(9), nil, "kept as text", nil},
		}},
	}}

	page, err := New(ex, 0).Query(context.Background(), input())
	require.NoError(t, err)
	require.Len(t, ex.calls, 2)
	assert.Contains(t, ex.calls[1].SQL, `IN ($1, $2)`)
	assert.Equal(t, []any{"e2", "e1"}, ex.calls[1].Args)

	require.Len(t, page.Events, 2)
	e2, e1 := page.Events[0], page.Events[1]
	assert.Equal(t, "signup", e2.Name)
	assert.Equal(t, "pro", e2.Properties["plan"])
	assert.Equal(t, 3.0, e2.Properties["seats"])
	assert.Equal(t, born, e2.Properties["born"])
	assert.Equal(t, "s1", e2.Properties["sessionId"])
	assert.Contains(t, e2.Properties, "urlPath")

	assert.Equal(t, "Page View", e1.Name)
	assert.Equal(t, "kept as text", e1.Properties["odd"])

	require.NotEmpty(t, page.NextCursor)
	c, err := DecodeCursor(page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, "e1", c.ID)
	assert.True(t, c.CreatedAt.Equal(t0))
}

func TestQuery_CursorNarrowsListing(t *testing.T) {
	t.Parallel()

	token, err := EncodeCursor(domain.Cursor{CreatedAt: t0, ID: "e1"})
	require.NoError(t, err)

	ex := &stubExec{results: []domain.ResultSet{{Columns: eventCols()}}}
	in := input()
	in.Cursor = token
	page, err := New(ex, 0).Query(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, ex.calls, 1)
	assert.Contains(t, ex.calls[0].SQL, `("WebsiteEvent"."createdAt" < $4 OR ("WebsiteEvent"."createdAt" = $4 AND "WebsiteEvent"."id" < $5))`)
	assert.NotNil(t, page.Events)
	assert.Empty(t, page.Events)
	assert.Empty(t, page.NextCursor)
}

func TestQuery_ShortPageHasNoCursor(t *testing.T) {
	t.Parallel()

	ex := &stubExec{results: []domain.ResultSet{
		{Columns: eventCols(), Rows: [][]any{eventRow("e1", "x", t0, "s")}},
		{Columns: propCols()},
	}}
	page, err := New(ex, 0).Query(context.Background(), input())
	require.NoError(t, err)
	assert.Len(t, page.Events, 1)
	assert.Empty(t, page.NextCursor)
}

func TestQuery_DefaultLimit(t *testing.T) {
	t.Parallel()

	ex := &stubExec{results: []domain.ResultSet{{Columns: eventCols()}}}
	in := input()
	in.Limit = 0
	_, err := New(ex, 25).Query(context.Background(), in)
	require.NoError(t, err)
	assert.Contains(t, ex.calls[0].SQL, "LIMIT 25")

	ex = &stubExec{results: []domain.ResultSet{{Columns: eventCols()}}}
	_, err = New(ex, 0).Query(context.Background(), in)
	require.NoError(t, err)
	assert.Contains(t, ex.calls[0].SQL, "LIMIT 50")
}

func TestQuery_CompileErrorsNeverReachBackend(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		mut  func(*domain.EventQueryInput)
		kind error
	}{
		{"bad cursor", func(in *domain.EventQueryInput) { in.Cursor = "%%%" }, domain.ErrInvalidDescriptor},
		{"unsupported operator", func(in *domain.EventQueryInput) {
			in.Filters = []domain.Filter{{Type: domain.FilterString, Operator: "between", Value: domain.Range("a", "b")}}
		}, domain.ErrUnsupportedOperator},
		{"limit too large", func(in *domain.EventQueryInput) { in.Limit = 501 }, domain.ErrInvalidDescriptor},
		{"unknown entity", func(in *domain.EventQueryInput) { in.InsightType = "monitor" }, domain.ErrUnknownEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ex := &stubExec{}
			in := input()
			tc.mut(&in)
			_, err := New(ex, 0).Query(context.Background(), in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.kind), "%v", err)
			assert.Empty(t, ex.calls)
		})
	}
}

func TestQuery_ExecErrorPropagates(t *testing.T) {
	t.Parallel()

	boom := domain.ExecFailed(domain.BackendPostgres, errors.New("connection reset"))
	_, err := New(&stubExec{err: boom}, 0).Query(context.Background(), input())
	assert.ErrorIs(t, err, domain.ErrQueryExecutionFailed)
}

func TestFold_BuiltInsWin(t *testing.T) {
	t.Parallel()

	s := "eav"
	events := []domain.InsightEvent{{ID: "a", Properties: map[string]any{"source": "builtin"}}, {ID: "b"}}
	got := Fold(events, []domain.Property{
		{OwnerID: "a", Key: "source", DataType: domain.DataString, StringValue: &s},
		{OwnerID: "b", Key: "source", DataType: domain.DataString, StringValue: &s},
		{OwnerID: "b", Key: "n", DataType: domain.DataNumber},
	})
	assert.Equal(t, "builtin", got[0].Properties["source"])
	assert.Equal(t, "eav", got[1].Properties["source"])
	assert.Nil(t, got[1].Properties["n"])
}

func TestCursor(t *testing.T) {
	t.Parallel()

	c, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, c)

	token, err := EncodeCursor(domain.Cursor{CreatedAt: t1.Add(123456 * time.Microsecond), ID: "x"})
	require.NoError(t, err)
	assert.NotContains(t, token, "=")

	c, err = DecodeCursor(token)
	require.NoError(t, err)
	assert.True(t, c.CreatedAt.Equal(t1.Add(123456*time.Microsecond)))

	for _, bad := range []string{"!!", "bm90IGpzb24", "e30"} {
		_, err := DecodeCursor(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidDescriptor, bad)
	}
}
