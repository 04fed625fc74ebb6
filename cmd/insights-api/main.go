// @title         Insights API
// @version       0.1.0
// @description   Time series and raw event queries over tracked analytics events

package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"insights/internal/modkit/repokit"
	"insights/internal/platform/config"
	"insights/internal/platform/logger"
	phttp "insights/internal/platform/net/http"
	"insights/internal/platform/store"

	"insights/internal/services/api"
)

func main() {
	// a missing .env is fine, real deployments set the environment directly
	_ = godotenv.Load()

	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	backend := strings.ToLower(root.Prefix("INSIGHTS_").MayEnum("BACKEND", "postgres", "postgres", "clickhouse"))

	pgCfg := root.Prefix("SERVICE_PGSQL_")      // pgCfg lives under SERVICE_PGSQL_*
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_") // chCfg lives under SERVICE_CLICKHOUSE_*
	// bring up logging early
	logger.Init(logger.FromEnv())
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// only the selected backend is opened
	cfg := store.Config{AppName: "insights"}
	switch backend {
	case "clickhouse":
		cfg.CH = store.CHConfig{
			Enabled:      true,
			URL:          chCfg.MustString("DBURL"),
			ClientTag:    "api",
			MaxOpenConns: chCfg.MayInt("MAX_OPEN_CONNS", 8),
			DialTimeout:  chCfg.MayDuration("DIAL_TIMEOUT", 5*time.Second),
			MaxExecution: chCfg.MayDuration("MAX_EXECUTION", 0),
			Ping:         chCfg.MayBool("PING", true),
		}
	default:
		cfg.PG = store.PGConfig{
			Enabled:          true,
			URL:              pgCfg.MustString("DBURL"),
			MaxConns:         int32(pgCfg.MayInt("MAX_CONNS", 4)),
			StatementTimeout: pgCfg.MayDuration("STATEMENT_TIMEOUT", 0),
			SlowQueryMs:      pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:           pgCfg.MayBool("LOG_SQL", false),
			ConnectRetries:   pgCfg.MayInt("CONNECT_RETRIES", 20),
			PingTimeout:      pgCfg.MayDuration("PING_TIMEOUT", 3*time.Second),
		}
	}

	st, err := store.Open(ctx, cfg, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Str("backend", backend).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	// fail fast when the selected backend is unreachable
	if apiCfg.MayBool("GUARD", true) {
		repokit.MustGuard(ctx, st)
	}

	// http server (reads CORE_API_PORT / CORE_API_ADDR)
	srv := phttp.NewServer(apiCfg)

	api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Store:          st,
			Logger:         l,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
			EnableMetrics:  apiCfg.MayBool("METRICS", true),
		},
	)

	l.Info().Str("addr", srv.Addr()).Str("backend", backend).Msg("insights api listening")
	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
