package http

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	phttp "insights/internal/platform/net/http"
)

type pingFunc func(context.Context) error

func (p pingFunc) Ping(ctx context.Context) error { return p(ctx) }

func get(t *testing.T, d Deps, path string, out any) {
	t.Helper()
	mux := chi.NewMux()
	Register(phttp.AdaptChi(mux), d)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, path, nil))
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())

	env := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func TestReady(t *testing.T) {
	t.Parallel()

	ok := pingFunc(func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	})
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	cases := []struct {
		name   string
		pg, ch Pinger
		want   string
	}{
		{"pg only", ok, nil, "ok"},
		{"ch down", nil, down, "fail"},
		{"nothing opened", nil, nil, "degraded"},
	}
	for _, tc := range cases {
		var got ReadyResponse
		get(t, Deps{PG: tc.pg, CH: tc.ch, ReadyTimeout: time.Second}, "/ready", &got)
		assert.Equal(t, tc.want, got.Status, tc.name)
		require.Len(t, got.Checks, 2)
	}

	var got ReadyResponse
	get(t, Deps{CH: down}, "/ready", &got)
	assert.Equal(t, "connection refused", got.Checks[1].Error)
}

func TestBackendAndService(t *testing.T) {
	t.Parallel()

	var b BackendResponse
	get(t, Deps{Backend: func() string { return "clickhouse" }}, "/backend", &b)
	assert.Equal(t, "clickhouse", b.Backend)
	assert.Equal(t, "insights-api", b.Build.Service)

	get(t, Deps{}, "/backend", &b)
	assert.Equal(t, "unknown", b.Backend)

	var s ServiceResponse
	get(t, Deps{ServiceName: "insights-api", StartedAt: time.Now().Add(-time.Minute)}, "/service", &s)
	assert.Equal(t, "insights-api", s.Name)
	assert.GreaterOrEqual(t, s.Uptime, int64(60))
}
