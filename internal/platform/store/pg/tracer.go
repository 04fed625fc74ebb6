package pg

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"insights/internal/platform/logger"
	pnet "insights/internal/platform/net"
)

// QueryEvent describes one finished statement, Elapsed spans execution and row iteration
type QueryEvent struct {
	SQL     string
	Args    []any
	Elapsed time.Duration
	Rows    int
	Err     error
	Slow    bool
}

// QueryTracer receives an event per statement
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs every statement through root at debug or above, whatever the root level
func Tracer(root logger.Logger) QueryTracer {
	return zlTracer{log: root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()}
}

type zlTracer struct{ log logger.Logger }

func (z zlTracer) OnQuery(ctx context.Context, ev QueryEvent) {
	evt := z.log.Info()
	switch {
	case ev.Err != nil:
		evt = z.log.Error().Err(ev.Err)
	case ev.Slow:
		evt = z.log.Warn()
	}
	if id := pnet.RequestID(ctx); id != "" {
		evt = evt.Str("request_id", id)
	}
	evt.Dur("elapsed", ev.Elapsed).
		Bool("slow", ev.Slow).
		Int("rows", ev.Rows).
		Str("sql", Compact(ev.SQL)).
		Interface("args", ev.Args).
		Msg("pg query")
}

// Compact collapses whitespace runs so generated SQL fits on one log line
func Compact(sql string) string { return strings.Join(strings.Fields(sql), " ") }
