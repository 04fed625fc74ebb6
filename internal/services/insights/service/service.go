// Package service runs insights queries end to end: compile, execute, shape
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"insights/internal/platform/logger"
	pnet "insights/internal/platform/net"
	"insights/internal/services/insights/domain"
	"insights/internal/services/insights/events"
	"insights/internal/services/insights/repo"
	"insights/internal/services/insights/shaper"
	"insights/internal/services/insights/sqlgen"
)

// Service defines the insights service contract
type Service interface {
	domain.ServicePort
}

// Options tunes the service, zero values fall back to package defaults
type Options struct {
	MaxBuckets      int
	EventsPageLimit int
}

// Svc implements the insights service against one executor
type Svc struct {
	exec   repo.Executor
	shaper shaper.Shaper
	events *events.Reconstructor
}

// New constructs an insights service
func New(exec repo.Executor, opts Options) *Svc {
	if exec == nil {
		panic("insights.Service requires a non nil Executor")
	}
	return &Svc{
		exec:   exec,
		shaper: shaper.New(opts.MaxBuckets),
		events: events.New(exec, opts.EventsPageLimit),
	}
}

// RunAggregateQuery compiles q for the executor's backend and returns dense series
func (s *Svc) RunAggregateQuery(ctx context.Context, q domain.QueryDescriptor) (domain.SeriesResult, error) {
	log := s.log(ctx, kindAggregate, q.InsightID)
	backend := string(s.exec.Dialect().Backend())

	st, err := sqlgen.Build(s.exec.Dialect(), q)
	if err != nil {
		queryErrors.WithLabelValues(backend, kindAggregate, stageCompile).Inc()
		log.Debug().Err(err).Str("insight_id", q.InsightID).Msg("insights: query rejected")
		return domain.SeriesResult{}, err
	}
	log.Debug().
		Str("sql", st.SQL).
		Int("args", len(st.Args)).
		Strs("labels", st.Labels).
		Msg("insights: statement built")

	timer := prometheus.NewTimer(queryDuration.WithLabelValues(backend, kindAggregate))
	started := time.Now()
	rs, err := s.exec.Run(ctx, st)
	timer.ObserveDuration()
	if err != nil {
		queryErrors.WithLabelValues(backend, kindAggregate, stageExecute).Inc()
		s.logFailure(log, err).Dur("elapsed", time.Since(started)).Msg("insights: query failed")
		return domain.SeriesResult{}, err
	}
	resultRows.WithLabelValues(backend, kindAggregate).Observe(float64(len(rs.Rows)))

	out, err := s.shaper.Shape(rs, q)
	if err != nil {
		queryErrors.WithLabelValues(backend, kindAggregate, stageShape).Inc()
		log.Error().Err(err).Msg("insights: shaping failed")
		return domain.SeriesResult{}, err
	}
	log.Info().
		Str("insight_id", q.InsightID).
		Str("unit", string(q.Time.Unit)).
		Int("rows", len(rs.Rows)).
		Int("series", len(out.Series)).
		Int("buckets", out.Len()).
		Dur("elapsed", time.Since(started)).
		Msg("insights: query done")
	return out, nil
}

// RunEventQuery lists one page of raw events with their properties
func (s *Svc) RunEventQuery(ctx context.Context, in domain.EventQueryInput) (domain.EventPage, error) {
	log := s.log(ctx, kindEvents, in.InsightID)
	backend := string(s.exec.Dialect().Backend())

	timer := prometheus.NewTimer(queryDuration.WithLabelValues(backend, kindEvents))
	started := time.Now()
	page, err := s.events.Query(ctx, in)
	timer.ObserveDuration()
	if err != nil {
		queryErrors.WithLabelValues(backend, kindEvents, stageOf(err)).Inc()
		s.logFailure(log, err).Msg("insights: event listing failed")
		return domain.EventPage{}, err
	}
	resultRows.WithLabelValues(backend, kindEvents).Observe(float64(len(page.Events)))
	log.Info().
		Str("insight_id", in.InsightID).
		Int("events", len(page.Events)).
		Bool("more", page.NextCursor != "").
		Dur("elapsed", time.Since(started)).
		Msg("insights: event listing done")
	return page, nil
}

func (s *Svc) log(ctx context.Context, kind, insightID string) *logger.Logger {
	ctx = logger.WithRequest(ctx, pnet.RequestID(ctx), insightID)
	l := logger.C(ctx).With().
		Str("component", "insights").
		Str("kind", kind).
		Str("query_id", uuid.NewString()).
		Logger()
	return &l
}

// logFailure picks the level: caller mistakes are debug, backend trouble is an error
func (s *Svc) logFailure(log *logger.Logger, err error) *zerolog.Event {
	if errors.Is(err, domain.ErrQueryExecutionFailed) {
		ev := log.Error().Err(err)
		if b, ok := domain.BackendOf(err); ok {
			ev = ev.Str("backend", string(b))
		}
		return ev
	}
	return log.Debug().Err(err)
}

func stageOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrQueryExecutionFailed):
		return stageExecute
	case errors.Is(err, domain.ErrLabelDecode):
		return stageShape
	}
	return stageCompile
}
