package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/CatalogGo/internal/service"
	"github.com/utafrali/CatalogGo/pkg/httputil"
	"github.com/utafrali/CatalogGo/pkg/middleware"
)

// CatalogHandler handles HTTP requests for the aggregated catalog.
type CatalogHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		logger:  logger,
	}
}

// ListProducts handles GET /products. The envelope wraps the full aggregated
// product list and echoes the caller's bearer token.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerTokenFromContext(r.Context())

	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, token, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK,
		httputil.Success("products retrieved successfully", token, products))
}

// GetProductByID handles GET /products/{id}. A lookup miss is a valid
// failure (envelope status 0, HTTP 404), not an error.
func (h *CatalogHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerTokenFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest,
			httputil.Error("product id is required", token))
		return
	}

	product, err := h.service.GetProductByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, token, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK,
		httputil.Success("product retrieved successfully", token, product))
}
