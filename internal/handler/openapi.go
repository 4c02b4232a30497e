package handler

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// OpenAPIHandler serves the generated API description.
type OpenAPIHandler struct {
	doc *openapi3.T
}

func NewOpenAPIHandler(doc *openapi3.T) *OpenAPIHandler {
	return &OpenAPIHandler{doc: doc}
}

// ServeSpec handles GET /openapi.json.
func (h *OpenAPIHandler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.doc)
}
