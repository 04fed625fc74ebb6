package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"insights/internal/platform/logger"
	chx "insights/internal/platform/store/ch"
	"insights/internal/platform/store/pg"
)

const (
	defaultConnectRetries = 20
	defaultPingTimeout    = 3 * time.Second
)

// pingBackoff is swapped in tests to keep retries fast
var pingBackoff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 150 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// openPG waits for postgres to answer before publishing the reader
func openPG(ctx context.Context, cfg Config, log logger.Logger) (Reader, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(log)
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:              cfg.PG.URL,
		AppName:          cfg.AppName,
		MaxConns:         cfg.PG.MaxConns,
		StatementTimeout: cfg.PG.StatementTimeout,
		SlowMs:           cfg.PG.SlowQueryMs,
	}, tracer)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	attempts, err := waitReady(ctx, cfg.PG.ConnectRetries, cfg.PG.PingTimeout, p.Pool.Ping)
	if err != nil {
		p.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("postgres ping failed after %d attempts: %w", attempts, err)
	}
	log.Info().Str("backend", "postgres").Int("attempts", attempts).Msg("store ready")
	return pgReader{p: p}, nil
}

func openCH(ctx context.Context, cfg Config, log logger.Logger) (Reader, error) {
	c, err := chx.Open(ctx, chx.Config{
		URL:          cfg.CH.URL,
		AppName:      cfg.AppName,
		ClientTag:    cfg.CH.ClientTag,
		MaxOpenConns: cfg.CH.MaxOpenConns,
		DialTimeout:  cfg.CH.DialTimeout,
		MaxExecution: cfg.CH.MaxExecution,
	})
	if err != nil {
		return nil, err
	}
	r := chReader{c: c}
	if cfg.CH.Ping {
		if err := r.Ping(ctx); err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("clickhouse ping failed: %w", err)
		}
		log.Info().Str("backend", "clickhouse").Msg("store ready")
	}
	return r, nil
}

// waitReady retries ping with backoff, each attempt bounded by timeout
func waitReady(ctx context.Context, retries int, timeout time.Duration, ping func(context.Context) error) (int, error) {
	if retries <= 0 {
		retries = defaultConnectRetries
	}
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		toCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return ping(toCtx)
	}, backoff.WithContext(backoff.WithMaxRetries(pingBackoff(), uint64(retries-1)), ctx))
	return attempts, err
}
