// Package httpkit is the routing surface modules register endpoints through
package httpkit

import (
	"net/http"

	phttp "insights/internal/platform/net/http"
)

type (
	// Router is the platform router seam
	Router = phttp.Router
	// Handler is the platform handler shape
	Handler = phttp.Handler
)

// APIV1 is the prefix every module is mounted under
const APIV1 = "/api/v1"

// Get mounts a GET endpoint whose result is wrapped in the envelope
func Get(r Router, path string, fn func(*http.Request) (any, error)) {
	r.Get(path, phttp.NoBody(fn))
}

// PostJSON mounts a POST endpoint that binds and validates a T first
func PostJSON[T any](r Router, path string, fn func(*http.Request, T) (any, error)) {
	r.Post(path, phttp.JSONHandler(fn))
}

// MountAPIV1 hands fn the /api/v1 subrouter
func MountAPIV1(r Router, fn func(api Router)) {
	r.Route(APIV1, fn)
}
