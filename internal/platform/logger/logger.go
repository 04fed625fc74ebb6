// Package logger owns the process wide zerolog logger and its request scoped children
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Options configures the root logger
type Options struct {
	Level      string
	Format     string // console or json
	Service    string
	Writer     io.Writer
	WithCaller bool
}

// FromEnv reads LOG_* directly, the config package logs through us so it cannot be used here
func FromEnv() Options {
	env := func(k, def string) string {
		if v := strings.TrimSpace(os.Getenv("LOG_" + k)); v != "" {
			return v
		}
		return def
	}
	caller, _ := strconv.ParseBool(env("CALLER", "false"))
	return Options{
		Level:      strings.ToLower(env("LEVEL", "info")),
		Format:     strings.ToLower(env("FORMAT", "console")),
		Service:    env("SERVICE", "insights-api"),
		WithCaller: caller,
	}
}

var (
	once   sync.Once
	root   atomic.Pointer[zerolog.Logger]
	inited atomic.Bool
)

// Logger is the project wide logging type
type Logger = zerolog.Logger

// Get returns the root logger, initializing it from the environment on first use
func Get() *Logger {
	if !inited.Load() {
		Init(FromEnv())
	}
	return root.Load()
}

// Init builds the root logger, later calls are no ops
func Init(opt Options) {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		var w io.Writer = os.Stdout
		if opt.Writer != nil {
			w = opt.Writer
		}
		if opt.Format != "json" {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		}

		zc := zerolog.New(w).Level(parseLevel(opt.Level)).With().Timestamp()
		if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
			zc = zc.Str("go_version", bi.GoVersion)
		}
		if opt.Service != "" {
			zc = zc.Str("service", opt.Service)
		}
		if opt.WithCaller {
			zc = zc.Caller()
		}

		log := zc.Logger()
		root.Store(&log)
		inited.Store(true)
	})
}

// parseLevel falls back to info for anything zerolog does not know
func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

type ctxKey struct{ name string }

var (
	keyRequestID = ctxKey{"request_id"}
	keyInsightID = ctxKey{"insight_id"}
)

// WithRequest stores the request id and the insight being queried on ctx, blanks are skipped
func WithRequest(ctx context.Context, reqID, insightID string) context.Context {
	if reqID != "" {
		ctx = context.WithValue(ctx, keyRequestID, reqID)
	}
	if insightID != "" {
		ctx = context.WithValue(ctx, keyInsightID, insightID)
	}
	return ctx
}

// C returns a child of the root logger carrying the request fields found on ctx
func C(ctx context.Context) *Logger {
	b := Get().With()
	for _, k := range []ctxKey{keyRequestID, keyInsightID} {
		if s, ok := ctx.Value(k).(string); ok && s != "" {
			b = b.Str(k.name, s)
		}
	}
	ll := b.Logger()
	return &ll
}

// Named returns a child logger tagged with component
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	ll := Get().With().Str("component", component).Logger()
	return &ll
}
