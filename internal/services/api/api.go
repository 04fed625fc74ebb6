// Package api composes the modules into the HTTP API
package api

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"insights/internal/platform/config"
	"insights/internal/platform/logger"
	phttp "insights/internal/platform/net/http"
	"insights/internal/platform/store"

	"insights/internal/modkit"
	"insights/internal/modkit/httpkit"
	"insights/internal/modkit/module"
	"insights/internal/modkit/swaggerkit"

	metamod "insights/internal/services/api/meta/module"
	insightsmod "insights/internal/services/insights/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
	EnableMetrics  bool

	// Insights overrides the module built from Store and INSIGHTS_* settings
	Insights module.Module
}

// Mount installs the common stack on r and mounts every module under /api/v1
// r must not have routes yet
func Mount(r phttp.Router, opt Options) {
	r.Use(httpkit.CommonStack(opt.Config.Prefix("CORE_API_"))...)

	deps := modkit.Deps{Cfg: opt.Config}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}
	if opt.Store != nil {
		deps.PG = opt.Store.PG
		deps.CH = opt.Store.CH
	}

	insights := opt.Insights
	if insights == nil {
		insights = insightsmod.New(deps)
	}
	mods := []module.Module{metamod.New(deps), insights}

	if opt.EnableMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	httpkit.MountAPIV1(r, func(api httpkit.Router) {
		for _, m := range mods {
			// ports are looked up by module name, meta reads the insights backend this way
			module.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
		}
	})
}
