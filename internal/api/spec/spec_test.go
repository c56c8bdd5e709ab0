package spec

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAPIHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	OpenAPIHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/yaml", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "/api/transfer")
	assert.Contains(t, rr.Body.String(), "/api/admin/approve-deposit")

	tag := rr.Header().Get("ETag")
	require.NotEmpty(t, tag)

	req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
	req.Header.Set("If-None-Match", tag)
	rr = httptest.NewRecorder()
	OpenAPIHandler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotModified, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestDocumentReturnsCopy(t *testing.T) {
	doc := Document()
	require.NotEmpty(t, doc)
	doc[0] = '#'
	assert.NotEqual(t, doc, document)
}
