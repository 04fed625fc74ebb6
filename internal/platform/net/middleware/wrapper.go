// Package middleware adapts chi middleware and adds the zerolog access log and JSON panic recovery
package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"

	pstrings "insights/internal/platform/strings"
)

// RequestID assigns or propagates X-Request-Id
func RequestID() func(http.Handler) http.Handler { return chimw.RequestID }

// RealIP trusts X-Forwarded-For and X-Real-IP for RemoteAddr
func RealIP() func(http.Handler) http.Handler { return chimw.RealIP }

// NoCache marks responses as uncacheable, query results change as events land
func NoCache() func(http.Handler) http.Handler { return chimw.NoCache }

// Compress gzips responses at level, dense series compress well
func Compress(level int) func(http.Handler) http.Handler {
	return chimw.NewCompressor(level).Handler
}

// Heartbeat answers GET path with 200 before routing
func Heartbeat(path string) func(http.Handler) http.Handler { return chimw.Heartbeat(path) }

// StripSlashes drops a trailing slash before routing
func StripSlashes() func(http.Handler) http.Handler { return chimw.StripSlashes }

// Timeout cancels the request context after d
func Timeout(d time.Duration) func(http.Handler) http.Handler { return chimw.Timeout(d) }

// CORSOptions is the subset of go-chi/cors the api exposes
type CORSOptions struct {
	AllowedOrigins []string
	MaxAge         int
}

// CORS allows the dashboard origins to POST JSON queries
func CORS(o CORSOptions) func(http.Handler) http.Handler {
	return chicors.Handler(chicors.Options{
		AllowedOrigins: pstrings.IfEmpty(o.AllowedOrigins, []string{"*"}),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", chimw.RequestIDHeader},
		ExposedHeaders: []string{chimw.RequestIDHeader},
		MaxAge:         o.MaxAge,
	})
}
