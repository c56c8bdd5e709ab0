// Package spec embeds the OpenAPI document describing the ledger API.
package spec

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"net/http"
	"time"
)

//go:embed openapi.yaml
var document []byte

var etag = func() string {
	sum := sha256.Sum256(document)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}()

// Document returns a copy of the embedded OpenAPI document.
func Document() []byte {
	return bytes.Clone(document)
}

// OpenAPIHandler serves the document as YAML. Clients revalidate with
// If-None-Match.
func OpenAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeContent(w, r, "openapi.yaml", time.Time{}, bytes.NewReader(document))
	}
}
