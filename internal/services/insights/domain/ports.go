package domain

import "context"

// ServicePort is consumed by handlers and other modules
type ServicePort interface {
	RunAggregateQuery(ctx context.Context, in QueryDescriptor) (SeriesResult, error)
	RunEventQuery(ctx context.Context, in EventQueryInput) (EventPage, error)
}
