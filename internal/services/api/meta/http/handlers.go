// Package http serves liveness, readiness and build info for the insights api
package http

import (
	"context"
	"net/http"
	"time"

	"insights/internal/core/version"
	"insights/internal/modkit/httpkit"
)

// Pinger is the part of a store reader readiness needs
type Pinger interface {
	Ping(context.Context) error
}

// Deps are the handler dependencies, a nil pinger is a disabled backend
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	PG          Pinger
	CH          Pinger

	// Backend names the store insights queries run against, resolved per request
	Backend func() string

	// ReadyTimeout bounds each backend ping
	ReadyTimeout time.Duration
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	if d.ReadyTimeout <= 0 {
		d.ReadyTimeout = 2 * time.Second
	}
	m := meta{d}
	httpkit.Get(r, "/health", m.health)
	httpkit.Get(r, "/ready", m.ready)
	httpkit.Get(r, "/version", m.version)
	httpkit.Get(r, "/service", m.service)
	httpkit.Get(r, "/backend", m.backend)
}

// HealthResponse answers /meta/health
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Started string `json:"started"`
	Now     string `json:"now"`
}

// Check statuses
const (
	CheckOK      = "ok"
	CheckFail    = "fail"
	CheckSkipped = "skipped"
)

// ReadyCheck is one backend ping
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Millis int64  `json:"ms"`
}

// ReadyResponse is fail when an opened backend does not answer, degraded when none is opened
type ReadyResponse struct {
	Status string       `json:"status"`
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"`
}

// ServiceResponse answers /meta/service, Uptime is in seconds
type ServiceResponse struct {
	Name    string `json:"name"`
	Started string `json:"started"`
	Uptime  int64  `json:"uptime"`
}

// BackendResponse reports which store answers insights queries
type BackendResponse struct {
	Backend string            `json:"backend"`
	Build   version.BuildInfo `json:"build"`
}

type meta struct{ d Deps }

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func (m meta) health(*http.Request) (any, error) {
	return HealthResponse{OK: true, Service: m.d.ServiceName, Started: stamp(m.d.StartedAt), Now: stamp(time.Now())}, nil
}

func (m meta) ping(ctx context.Context, name string, p Pinger) ReadyCheck {
	if p == nil {
		return ReadyCheck{Name: name, Status: CheckSkipped}
	}
	ctx, cancel := context.WithTimeout(ctx, m.d.ReadyTimeout)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	c := ReadyCheck{Name: name, Status: CheckOK, Millis: time.Since(start).Milliseconds()}
	if err != nil {
		c.Status, c.Error = CheckFail, err.Error()
	}
	return c
}

func (m meta) ready(r *http.Request) (any, error) {
	checks := []ReadyCheck{m.ping(r.Context(), "pg", m.d.PG), m.ping(r.Context(), "ch", m.d.CH)}

	status, skipped := "ok", 0
	for _, c := range checks {
		switch c.Status {
		case CheckFail:
			status = "fail"
		case CheckSkipped:
			skipped++
		}
	}
	if status == "ok" && skipped == len(checks) {
		status = "degraded"
	}
	return ReadyResponse{Status: status, Checks: checks, Now: stamp(time.Now())}, nil
}

func (m meta) version(*http.Request) (any, error) { return version.Info(), nil }

func (m meta) service(*http.Request) (any, error) {
	return ServiceResponse{
		Name:    m.d.ServiceName,
		Started: stamp(m.d.StartedAt),
		Uptime:  int64(time.Since(m.d.StartedAt) / time.Second),
	}, nil
}

func (m meta) backend(*http.Request) (any, error) {
	name := "unknown"
	if m.d.Backend != nil {
		name = m.d.Backend()
	}
	return BackendResponse{Backend: name, Build: version.Info()}, nil
}
