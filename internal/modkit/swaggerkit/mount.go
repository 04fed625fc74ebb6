// Package swaggerkit serves the OpenAPI document and swagger UI
package swaggerkit

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"insights/internal/modkit/httpkit"
)

// Mount serves the UI under /api/docs when enabled
func Mount(r httpkit.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get("/api/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/docs/index.html", http.StatusPermanentRedirect)
	})
	r.Get("/api/docs/doc.json", serveDocJSON())
	r.Handle("/api/docs/*", httpSwagger.Handler(
		httpSwagger.InstanceName(InstanceName),
		httpSwagger.URL("/api/docs/doc.json"),
	))
}
