// Package module mounts the meta endpoints
package module

import (
	"time"

	"insights/internal/modkit"
	"insights/internal/modkit/httpkit"
	"insights/internal/modkit/module"
	metahttp "insights/internal/services/api/meta/http"
)

// BackendPort is what meta reads from the insights module's registered ports
type BackendPort interface {
	BackendName() string
}

// Module serves health, readiness and build info
type Module struct {
	b    modkit.Built
	deps metahttp.Deps
}

// New builds the meta module, it has no ports of its own
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("meta"), modkit.WithPrefix("/meta")}, opts...)...)
	api := deps.Cfg.Prefix("CORE_API_")

	return &Module{b: b, deps: metahttp.Deps{
		ServiceName:  api.MayString("SERVICE_NAME", "insights-api"),
		StartedAt:    time.Now(),
		PG:           deps.PG,
		CH:           deps.CH,
		ReadyTimeout: api.MayDuration("READY_TIMEOUT", 2*time.Second),
		Backend: func() string {
			if p, ok := module.PortsAs[BackendPort]("insights"); ok {
				return p.BackendName()
			}
			return "unknown"
		},
	}}
}

// MountRoutes mounts the meta routes under the module prefix
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(rr httpkit.Router) { metahttp.Register(rr, m.deps) })
}

// Name returns "meta" unless overridden
func (m *Module) Name() string { return m.b.ModuleName() }

// Ports is always nil
func (m *Module) Ports() any { return nil }
