package module

import (
	"context"

	"insights/internal/services/insights/domain"
	insightssvc "insights/internal/services/insights/service"
)

// Ports returns the port set other modules look up under "insights"
func (m *Module) Ports() any { return adaptInsightsPort{svc: m.svc, backend: m.backend} }

type adaptInsightsPort struct {
	svc     insightssvc.Service
	backend string
}

// RunAggregateQuery returns dense time series for a descriptor
func (a adaptInsightsPort) RunAggregateQuery(ctx context.Context, in domain.QueryDescriptor) (domain.SeriesResult, error) {
	return a.svc.RunAggregateQuery(ctx, in)
}

// RunEventQuery returns one page of raw events
func (a adaptInsightsPort) RunEventQuery(ctx context.Context, in domain.EventQueryInput) (domain.EventPage, error) {
	return a.svc.RunEventQuery(ctx, in)
}

// BackendName is the store the executor compiles for
func (a adaptInsightsPort) BackendName() string { return a.backend }
