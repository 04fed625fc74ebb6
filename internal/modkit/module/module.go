// Package module is the contract between api.Mount and the modules it composes
package module

import phttp "insights/internal/platform/net/http"

// Module mounts its routes and exposes ports other modules may look up by name
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
