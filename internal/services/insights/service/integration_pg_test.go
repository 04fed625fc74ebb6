//go:build integration_pg
// +build integration_pg

package service

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"insights/internal/platform/store"
	"insights/internal/services/insights/domain"
	"insights/internal/services/insights/repo"
)

const schema = `
CREATE TABLE "WebsiteEvent" (
	"id"             text PRIMARY KEY,
	"websiteId"      text NOT NULL,
	"createdAt"      timestamptz NOT NULL,
	"eventName"      text,
	"eventType"      int NOT NULL DEFAULT 1,
	"sessionId"      text NOT NULL,
	"urlPath"        text,
	"urlQuery"       text,
	"referrerPath"   text,
	"referrerQuery"  text,
	"referrerDomain" text,
	"pageTitle"      text
);
CREATE TABLE "WebsiteEventData" (
	"websiteEventId" text NOT NULL,
	"eventKey"       text NOT NULL,
	"dataType"       int NOT NULL,
	"numberValue"    numeric,
	"stringValue"    text,
	"dateValue"      timestamptz
);`

func startPostgres(t *testing.T) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "postgres",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections"),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mp, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mp.Port())
}

// fixture holds the read only store under test and a separate writable connection for seeding
type fixture struct {
	st   *store.Store
	seed *pgx.Conn
}

func openStore(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	dsn := startPostgres(t)

	seed, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = seed.Close(context.Background()) })
	_, err = seed.Exec(ctx, schema)
	require.NoError(t, err)

	st, err := store.Open(ctx, store.Config{
		AppName: "insights-test",
		PG:      store.PGConfig{Enabled: true, URL: dsn, MaxConns: 4, StatementTimeout: 10 * time.Second},
	}, store.WithLogger(zerolog.New(io.Discard)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return fixture{st: st, seed: seed}
}

func insertEvent(t *testing.T, f fixture, id string, at time.Time, name, session string, props map[string]any) {
	t.Helper()
	ctx := context.Background()

	var eventName any
	eventType := 1
	if name != "" {
		eventName, eventType = name, 2
	}
	_, err := f.seed.Exec(ctx,
		`INSERT INTO "WebsiteEvent" ("id", "websiteId", "createdAt", "eventName", "eventType", "sessionId", "urlPath")
		 VALUES ($1, 'site-1', $2, $3, $4, $5, '/')`,
		id, at, eventName, eventType, session)
	require.NoError(t, err)

	for k, v := range props {
		switch x := v.(type) {
		case float64:
			_, err = f.seed.Exec(ctx, `INSERT INTO "WebsiteEventData" VALUES ($1, $2, 1, $3, NULL, NULL)`, id, k, x)
		case string:
			_, err = f.seed.Exec(ctx, `INSERT INTO "WebsiteEventData" VALUES ($1, $2, 2, NULL, $3, NULL)`, id, k, x)
		}
		require.NoError(t, err)
	}
}

func TestIntegration_AggregateAgainstPostgres(t *testing.T) {
	f := openStore(t)
	day0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	insertEvent(t, f, "e1", day0.Add(1*time.Hour), "signup", "s1", map[string]any{"plan": "pro", "age": 17.0})
	insertEvent(t, f, "e2", day0.Add(2*time.Hour), "signup", "s1", map[string]any{"plan": "free", "age": 25.0})
	insertEvent(t, f, "e3", day0.Add(3*time.Hour), "", "s2", nil)
	insertEvent(t, f, "e4", day0.AddDate(0, 0, 2).Add(time.Hour), "signup", "s3", map[string]any{"plan": "pro", "age": 40.0})

	exec, err := repo.Open(domain.BackendPostgres, f.st)
	require.NoError(t, err)
	svc := New(exec, Options{})

	q := domain.QueryDescriptor{
		InsightID:   "site-1",
		InsightType: domain.InsightWebsite,
		Metrics: []domain.Metric{
			{Name: "signup", Math: domain.MathEvents},
			{Name: "signup users", Math: domain.MathSessions},
			{Name: domain.MetricPageView, Math: domain.MathEvents},
		},
		Time: domain.TimeWindow{StartAt: day0, EndAt: day0.AddDate(0, 0, 2).Add(23 * time.Hour), Unit: domain.UnitDay, Timezone: "UTC"},
	}
	out, err := svc.RunAggregateQuery(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())

	events, ok := out.Find("signup")
	require.True(t, ok)
	assert.Equal(t, []int64{2, 0, 1}, events.Values)

	sessions, ok := out.Find("signup users")
	require.True(t, ok)
	assert.Equal(t, []int64{1, 0, 1}, sessions.Values)
	for i := range events.Values {
		assert.LessOrEqual(t, sessions.Values[i], events.Values[i])
	}

	pv, ok := out.Find(domain.MetricPageView)
	require.True(t, ok)
	assert.Equal(t, []int64{1, 0, 0}, pv.Values)

	// narrowed by a number property
	q.Metrics = q.Metrics[:1]
	q.Filters = []domain.Filter{{Name: "age", Type: domain.FilterNumber, Operator: "greater", Value: domain.Scalar(18)}}
	out, err = svc.RunAggregateQuery(context.Background(), q)
	require.NoError(t, err)
	events, _ = out.Find("signup")
	assert.Equal(t, []int64{1, 0, 1}, events.Values)

	// grouped by a string property
	q.Filters = nil
	q.Groups = []domain.Group{{Value: "plan", Type: domain.FilterString}}
	out, err = svc.RunAggregateQuery(context.Background(), q)
	require.NoError(t, err)
	pro, ok := out.Find("signup (plan=pro)")
	require.True(t, ok)
	assert.Equal(t, []int64{1, 0, 1}, pro.Values)
}

func TestIntegration_EventPagesNeverRepeat(t *testing.T) {
	f := openStore(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		insertEvent(t, f, fmt.Sprintf("e%02d", i), base.Add(time.Duration(i)*time.Minute), "click", "s1",
			map[string]any{"n": float64(i)})
	}
	// two events share a timestamp, the id breaks the tie
	insertEvent(t, f, "e05", base.Add(4*time.Minute), "click", "s1", nil)

	exec, err := repo.Open(domain.BackendPostgres, f.st)
	require.NoError(t, err)
	svc := New(exec, Options{})

	in := domain.EventQueryInput{
		QueryDescriptor: domain.QueryDescriptor{
			InsightID:   "site-1",
			InsightType: domain.InsightWebsite,
			Time:        domain.TimeWindow{StartAt: base.Add(-time.Hour), EndAt: base.Add(time.Hour)},
		},
		Limit: 2,
	}

	seen := map[string]bool{}
	var order []string
	for page := 0; page < 10; page++ {
		res, err := svc.RunEventQuery(context.Background(), in)
		require.NoError(t, err)
		for _, ev := range res.Events {
			assert.False(t, seen[ev.ID], "event %s repeated", ev.ID)
			seen[ev.ID] = true
			order = append(order, ev.ID)
			assert.Equal(t, "s1", ev.Properties["sessionId"])
		}
		if page == 0 {
			// newer rows written between pages stay out of later pages
			insertEvent(t, f, "e99", base.Add(30*time.Minute), "click", "s9", nil)
		}
		if res.NextCursor == "" {
			break
		}
		in.Cursor = res.NextCursor
	}
	assert.Equal(t, []string{"e05", "e04", "e03", "e02", "e01", "e00"}, order)
}

func TestIntegration_StoreSessionsAreReadOnly(t *testing.T) {
	f := openStore(t)

	_, _, err := store.Table(context.Background(), f.st.PG, `INSERT INTO "WebsiteEventData" VALUES ('x', 'k', 2, NULL, 'v', NULL)`)
	require.Error(t, err)
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "25006", pgErr.Code)

	cols, rows, err := store.Table(context.Background(), f.st.PG, "SELECT current_setting('application_name'), current_setting('statement_timeout')")
	require.NoError(t, err)
	assert.Len(t, cols, 2)
	assert.Equal(t, [][]any{{"insights-test", "10s"}}, rows)
}
