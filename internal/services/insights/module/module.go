// Package module wires insights into the API using modkit
package module

import (
	"insights/internal/modkit"
	"insights/internal/modkit/httpkit"
	"insights/internal/platform/logger"
	insightshttp "insights/internal/services/insights/http"
	insightsrepo "insights/internal/services/insights/repo"
	insightssvc "insights/internal/services/insights/service"
)

// Inject lets callers hand the module a ready executor through modkit.WithPorts
type Inject struct {
	Executor insightsrepo.Executor
}

// Module implements the insights module
type Module struct {
	b       modkit.Built
	backend string
	svc     insightssvc.Service
}

// New constructs the insights module, the backend comes from INSIGHTS_BACKEND unless an executor is injected
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("insights"), modkit.WithPrefix("/insights")}, opts...)...)
	cfg := FromConfig(deps.Cfg)

	var exec insightsrepo.Executor
	if in, ok := b.Ports.(Inject); ok {
		exec = in.Executor
	}
	if exec == nil {
		var err error
		exec, err = insightsrepo.Open(cfg.Backend, deps.Store())
		if err != nil {
			logger.Named("insights").Panic().Err(err).Str("backend", string(cfg.Backend)).Msg("insights module: no executor")
		}
	}

	return &Module{
		b:       b,
		backend: string(exec.Dialect().Backend()),
		svc: insightssvc.New(exec, insightssvc.Options{
			MaxBuckets:      cfg.MaxBuckets,
			EventsPageLimit: cfg.EventsPageLimit,
		}),
	}
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(rr httpkit.Router) { insightshttp.Register(rr, m.svc) })
}

// Name returns the module name
func (m *Module) Name() string { return m.b.ModuleName() }
