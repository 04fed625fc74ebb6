package swaggerkit

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag/v2"

	phttp "insights/internal/platform/net/http"
)

func get(t *testing.T, enabled bool, path string) *httptest.ResponseRecorder {
	t.Helper()
	mux := chi.NewMux()
	Mount(phttp.AdaptChi(mux), enabled)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestDocJSON(t *testing.T) {
	rec := get(t, true, "/api/docs/doc.json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var spec map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spec))
	assert.Equal(t, "3.0.3", spec["openapi"])
	assert.Equal(t, []any{map[string]any{"url": "/api/v1"}}, spec["servers"])

	paths := spec["paths"].(map[string]any)
	query := paths["/insights/query"].(map[string]any)["post"].(map[string]any)
	resps := query["responses"].(map[string]any)
	for _, status := range []string{"200", "400", "404", "422", "500"} {
		assert.Contains(t, resps, status)
	}
	schemas := spec["components"].(map[string]any)["schemas"].(map[string]any)
	assert.Contains(t, schemas, "ErrorResponse")
	assert.Contains(t, schemas, "QueryDescriptor")
}

func TestDocJSON_Registered(t *testing.T) {
	doc, err := swag.ReadDoc(InstanceName)
	require.NoError(t, err)
	assert.Contains(t, doc, `"title": "Insights API"`)
}

func TestDocJSON_ReadFailure(t *testing.T) {
	orig := docReader
	t.Cleanup(func() { docReader = orig })

	docReader = func() (string, error) { return "", errors.New("missing") }
	assert.Equal(t, http.StatusInternalServerError, get(t, true, "/api/docs/doc.json").Code)

	docReader = func() (string, error) { return "{", nil }
	assert.Equal(t, http.StatusInternalServerError, get(t, true, "/api/docs/doc.json").Code)
}

func TestMount_Disabled(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, get(t, false, "/api/docs/doc.json").Code)
	assert.Equal(t, http.StatusPermanentRedirect, get(t, true, "/api/docs").Code)
}
