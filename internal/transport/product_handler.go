package transport

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"product-catalog/internal/domain"
	"product-catalog/internal/middleware"
	"product-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes. authMiddleware identifies the caller
// and writeGuard decides whether the caller may modify the catalog.
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, writeGuard func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(writeGuard)

		r.Get("/", h.ListProducts)
		r.Post("/", h.CreateProduct)
		r.Get("/{id}", h.GetProduct)
		r.Put("/{id}", h.UpdateProduct)
		r.Patch("/{id}", h.PatchProduct)
		r.Delete("/{id}", h.DeleteProduct)
	})
}

// ListProducts handles GET /api/products
// @Summary List products
// @Description Paginated product listing with search, price and category filters and ordering.
// @Tags products
// @Produce json
// @Param search query string false "Case-insensitive match on name or description"
// @Param min_price query number false "Minimum price, inclusive"
// @Param max_price query number false "Maximum price, inclusive"
// @Param category query string false "Case-insensitive match on category name"
// @Param ordering query string false "Comma separated keys among price, name, created_at; prefix with - for descending"
// @Param page query string false "Page number or 'last'"
// @Success 200 {object} ProductListResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /api/products/ [get]
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter, errs := parseProductFilter(query)
	if len(errs) > 0 {
		h.logger.Debug("Invalid product filter", zap.String("query", r.URL.RawQuery))
		middleware.RespondWithValidationErrors(w, errs)
		return
	}

	page, err := h.productService.List(r.Context(), filter, query.Get("page"))
	if err != nil {
		respondServiceError(w, r, h.logger, err, "List products")
		return
	}

	resp := ProductListResponse{
		Count:   page.Total,
		Results: make([]ProductResponse, 0, len(page.Items)),
	}
	for _, p := range page.Items {
		resp.Results = append(resp.Results, newProductResponse(p))
	}
	if page.HasNext() {
		next := pageURL(r, page.Number+1)
		resp.Next = &next
	}
	if page.HasPrevious() {
		previous := pageURL(r, page.Number-1)
		resp.Previous = &previous
	}

	middleware.RespondWithJSON(w, http.StatusOK, resp)
}

// CreateProduct handles POST /api/products
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Param product body ProductRequest true "Product payload"
// @Success 201 {object} ProductResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /api/products/ [post]
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	var owner *uuid.UUID
	if userID, ok := middleware.GetUserID(r.Context()); ok {
		owner = &userID
	}

	product, err := h.productService.Create(r.Context(), req.changes(), owner)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Create product")
		return
	}

	h.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("slug", product.Slug),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, newProductResponse(product))
}

// GetProduct handles GET /api/products/{id}
// @Summary Get a product
// @Tags products
// @Produce json
// @Param id path string true "Product ID" format(uuid)
// @Success 200 {object} ProductResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /api/products/{id}/ [get]
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newProductResponse(product))
}

// UpdateProduct handles PUT /api/products/{id}
// @Summary Replace a product
// @Description name, description and price are required. Omitted optional fields keep their value.
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product ID" format(uuid)
// @Param product body ProductRequest true "Product payload"
// @Success 200 {object} ProductResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /api/products/{id}/ [put]
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

// PatchProduct handles PATCH /api/products/{id}
// @Summary Update some fields of a product
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product ID" format(uuid)
// @Param product body ProductRequest true "Fields to change"
// @Success 200 {object} ProductResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /api/products/{id}/ [patch]
func (h *ProductHandler) PatchProduct(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *ProductHandler) update(w http.ResponseWriter, r *http.Request, partial bool) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	product, err := h.productService.Update(r.Context(), id, req.changes(), partial)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Update product")
		return
	}

	h.logger.Info("Product updated",
		zap.String("product_id", product.ID.String()),
		zap.Bool("partial", partial),
	)
	middleware.RespondWithJSON(w, http.StatusOK, newProductResponse(product))
}

// DeleteProduct handles DELETE /api/products/{id}
// @Summary Delete a product
// @Tags products
// @Param id path string true "Product ID" format(uuid)
// @Success 204
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /api/products/{id}/ [delete]
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, h.logger, err, "Delete product")
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// productID reads the path id. A malformed id cannot name a product, so it is a 404.
func (h *ProductHandler) productID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, msgNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func parseProductFilter(query url.Values) (domain.ProductFilter, []middleware.ValidationError) {
	filter := domain.ProductFilter{
		Search:   strings.TrimSpace(query.Get("search")),
		Category: strings.TrimSpace(query.Get("category")),
		Ordering: domain.ParseOrdering(query.Get("ordering")),
	}

	var errs []middleware.ValidationError
	parseBound := func(name string) *decimal.Decimal {
		raw := strings.TrimSpace(query.Get(name))
		if raw == "" {
			return nil
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			errs = append(errs, middleware.ValidationError{Field: name, Message: "Enter a number."})
			return nil
		}
		return &value
	}
	filter.MinPrice = parseBound("min_price")
	filter.MaxPrice = parseBound("max_price")

	return filter, errs
}

// pageURL returns the absolute URL of another page of the current listing
func pageURL(r *http.Request, page int) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}

	query := r.URL.Query()
	if page == 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}

	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: query.Encode()}
	return u.String()
}
