package swaggerkit

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"insights/internal/modkit/httpkit"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// docReader is swapped in tests
var docReader = func() (string, error) { return Info.ReadDoc(), nil }

// serveDocJSON renders the registered document and fills in what the template leaves implicit
func serveDocJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		raw, err := docReader()
		if err != nil {
			http.Error(w, "spec read error", http.StatusInternalServerError)
			return
		}
		var spec map[string]any
		if err := json.Unmarshal([]byte(raw), &spec); err != nil {
			http.Error(w, "spec parse error", http.StatusInternalServerError)
			return
		}

		ensureServers(spec, httpkit.APIV1)
		ensureErrorResponse(spec)
		addDefaultErrors(spec)

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(spec)
	}
}

// ensureServers pins OAS 3.0.3, the bundled UI cannot render 3.1
func ensureServers(spec map[string]any, url string) {
	delete(spec, "swagger")
	spec["openapi"] = "3.0.3"
	if _, ok := spec["servers"]; !ok {
		spec["servers"] = []any{map[string]any{"url": url}}
	}
}

// child returns m[key] as a map, creating it when missing
func child(m map[string]any, key string) map[string]any {
	c, ok := m[key].(map[string]any)
	if !ok {
		c = map[string]any{}
		m[key] = c
	}
	return c
}

// ensureErrorResponse describes the error envelope every handler writes
func ensureErrorResponse(spec map[string]any) {
	schemas := child(child(spec, "components"), "schemas")
	if _, ok := schemas["ErrorResponse"]; ok {
		return
	}
	schemas["ErrorResponse"] = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status_code": map[string]any{"type": "integer"},
			"status":      map[string]any{"type": "string"},
			"code":        map[string]any{"type": "integer"},
			"error":       map[string]any{"type": "string"},
			"field":       map[string]any{"type": "string"},
			"request_id":  map[string]any{"type": "string"},
		},
		"required": []any{"status_code", "status"},
	}
}

var defaultErrors = map[string]string{
	"400": "descriptor failed binding or validation",
	"500": "backend failure or panic",
}

// addDefaultErrors gives every operation the 400 and 500 envelopes it can return
func addDefaultErrors(spec map[string]any) {
	paths, ok := spec["paths"].(map[string]any)
	if !ok {
		return
	}
	for _, p := range paths {
		node, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for _, opAny := range node {
			op, ok := opAny.(map[string]any)
			if !ok {
				continue
			}
			resps := child(op, "responses")
			for status, desc := range defaultErrors {
				if _, exists := resps[status]; exists {
					continue
				}
				resps[status] = map[string]any{
					"description": desc,
					"content": map[string]any{"application/json": map[string]any{
						"schema": map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
					}},
				}
			}
		}
	}
}
