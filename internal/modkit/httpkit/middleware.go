package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"insights/internal/platform/config"
	"insights/internal/platform/net/middleware"
)

// CommonStack is the root middleware chain, cfg is the CORE_API_ scope
// recovery sits inside the access log so a panic still logs its 500
func CommonStack(cfg config.Conf) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.Heartbeat("/health"),
		middleware.AccessLog(cfg.MayDuration("SLOW_REQUEST", time.Second)),
		middleware.RecoverJSON,
		middleware.StripSlashes(),
		middleware.CORS(middleware.CORSOptions{
			AllowedOrigins: cfg.MayCSV("CORS_ORIGINS", nil),
			MaxAge:         cfg.MayInt("CORS_MAX_AGE", 300),
		}),
		middleware.NoCache(),
		middleware.Compress(flate.DefaultCompression),
		middleware.Timeout(cfg.MayDuration("REQUEST_TIMEOUT", 55*time.Second)),
	}
}
