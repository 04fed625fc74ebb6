package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"insights/internal/platform/logger"
	pnet "insights/internal/platform/net"
)

// AccessLog writes one zerolog line per request, requests slower than slow log at warn, zero disables that
func AccessLog(slow time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			log := logger.C(logger.WithRequest(r.Context(), pnet.RequestID(r.Context()), ""))
			evt := log.Info()
			if slow > 0 && elapsed >= slow {
				evt = log.Warn()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			evt.Int("status", status).
				Dur("elapsed", elapsed).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("bytes", ww.BytesWritten()).
				Msg("request done")
		})
	}
}
