// Package http provides http transport for insights
package http

import (
	stdhttp "net/http"

	"insights/internal/modkit/httpkit"
	"insights/internal/services/insights/domain"
	svc "insights/internal/services/insights/service"
)

// Register mounts insights endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	// dense time series per metric and group
	httpkit.PostJSON[domain.QueryDescriptor](r, "/query", h.query)

	// raw events newest first
	httpkit.PostJSON[domain.EventQueryInput](r, "/events", h.events)
}

type handlers struct{ svc svc.Service }

// swagger:route POST /insights/query Insights insightsQuery
// @Summary Aggregate events into time series
// @Tags Insights
// @Accept json
// @Produce json
// @Param payload body domain.QueryDescriptor true "Query"
// @Success 200 {array} map[string]any "one object per bucket"
// @Router /insights/query [post]
func (h *handlers) query(r *stdhttp.Request, in domain.QueryDescriptor) (any, error) {
	return h.svc.RunAggregateQuery(r.Context(), in)
}

// swagger:route POST /insights/events Insights insightsEvents
// @Summary List raw events with their properties
// @Tags Insights
// @Accept json
// @Produce json
// @Param payload body domain.EventQueryInput true "Query"
// @Success 200 {object} domain.EventPage "ok"
// @Router /insights/events [post]
func (h *handlers) events(r *stdhttp.Request, in domain.EventQueryInput) (any, error) {
	return h.svc.RunEventQuery(r.Context(), in)
}
