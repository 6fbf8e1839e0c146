package transport

import (
	"net/http"

	_ "product-catalog/docs" // registers the API schema with swag

	"product-catalog/internal/middleware"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"github.com/swaggo/swag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const redocPage = `<!DOCTYPE html>
<html>
  <head>
    <title>Product Catalog API</title>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>body { margin: 0; padding: 0; }</style>
  </head>
  <body>
    <redoc spec-url="/swagger.json"></redoc>
    <script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
  </body>
</html>
`

// DocsHandler serves the API schema and the pages that render it
type DocsHandler struct {
	logger *zap.Logger
}

// NewDocsHandler creates a new DocsHandler
func NewDocsHandler(logger *zap.Logger) *DocsHandler {
	return &DocsHandler{logger: logger}
}

// RegisterRoutes registers the swagger UI, redoc and raw schema routes
func (h *DocsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/swagger", http.RedirectHandler("/swagger/index.html", http.StatusMovedPermanently).ServeHTTP)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	r.Get("/swagger.json", h.SchemaJSON)
	r.Get("/swagger.yaml", h.SchemaYAML)
	r.Get("/redoc", h.Redoc)
}

// SchemaJSON serves the schema as JSON
func (h *DocsHandler) SchemaJSON(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		h.logger.Error("Failed to read API schema", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc))
}

// SchemaYAML serves the schema as YAML, keeping the key order of the JSON document
func (h *DocsHandler) SchemaYAML(w http.ResponseWriter, r *http.Request) {
	out, err := schemaYAML()
	if err != nil {
		h.logger.Error("Failed to render API schema as YAML", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

// Redoc serves the redoc page
func (h *DocsHandler) Redoc(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(redocPage))
}

func schemaYAML() ([]byte, error) {
	doc, err := swag.ReadDoc()
	if err != nil {
		return nil, err
	}

	// JSON is a YAML subset; decoding into a node keeps the original order
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(doc), &node); err != nil {
		return nil, err
	}
	blockStyle(&node)

	return yaml.Marshal(&node)
}

func blockStyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		blockStyle(child)
	}
}
