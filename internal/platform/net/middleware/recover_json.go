package middleware

import (
	"net/http"
	"runtime/debug"

	perr "insights/internal/platform/errors"
	"insights/internal/platform/logger"
	pnet "insights/internal/platform/net"
	phttp "insights/internal/platform/net/http"
)

// RecoverJSON turns a panic into a 500 error envelope and logs the stack with the request id
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			reqID := pnet.RequestID(r.Context())
			logger.C(logger.WithRequest(r.Context(), reqID, "")).Error().
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			env := phttp.ErrorEnvelope(perr.PanicErrf("panic recovered"), reqID)
			phttp.JSON(w, env.StatusCode, env)
		}()
		next.ServeHTTP(w, r)
	})
}
