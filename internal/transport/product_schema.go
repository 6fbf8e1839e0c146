package transport

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"product-catalog/internal/domain"
	"product-catalog/internal/middleware"
	"product-catalog/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const imageURLMaxLength = 500

// NullableUUID is a JSON field that tells apart "absent", "null" and a value
type NullableUUID struct {
	Set     bool
	Valid   bool
	UUID    uuid.UUID
	Invalid bool
}

func (n *NullableUUID) UnmarshalJSON(data []byte) error {
	*n = NullableUUID{Set: true}
	if string(data) == "null" {
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		n.Invalid = true
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		n.Invalid = true
		return nil
	}
	n.Valid = true
	n.UUID = id
	return nil
}

// ProductRequest is the body of POST, PUT and PATCH on products. Read-only fields are ignored.
type ProductRequest struct {
	Name        *string          `json:"name" example:"Widget"`
	Description *string          `json:"description" example:"A very useful widget"`
	Price       *decimal.Decimal `json:"price" swaggertype:"string" example:"12.50"`
	Stock       *int             `json:"stock" example:"3"`
	ImageURL    *string          `json:"image_url" example:"https://cdn.example.com/widget.png"`
	CategoryID  NullableUUID     `json:"category_id" swaggertype:"string" format:"uuid"`
}

// fieldErrors reports format problems the product service does not check
func (req *ProductRequest) fieldErrors() []middleware.ValidationError {
	var errs []middleware.ValidationError

	if req.ImageURL != nil {
		if url := strings.TrimSpace(*req.ImageURL); url != "" {
			errs = append(errs, middleware.ValidateVar("image_url", url, fmt.Sprintf("max=%d,http_url", imageURLMaxLength))...)
		}
	}
	if req.CategoryID.Invalid {
		errs = append(errs, middleware.ValidationError{Field: "category_id", Message: "Must be a valid UUID."})
	}

	return errs
}

func (req *ProductRequest) changes() service.ProductChanges {
	changes := service.ProductChanges{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		CategorySet: req.CategoryID.Set,
	}
	for _, fe := range req.fieldErrors() {
		changes.Invalid = append(changes.Invalid, service.FieldError{Field: fe.Field, Message: fe.Message})
	}
	if req.CategoryID.Valid {
		id := req.CategoryID.UUID
		changes.CategoryID = &id
	}
	return changes
}

// CategoryRef is the nested category of a product
type CategoryRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ProductResponse is the wire representation of a product
type ProductResponse struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Slug        string       `json:"slug"`
	Description string       `json:"description"`
	Price       string       `json:"price" example:"12.50"`
	Stock       int          `json:"stock"`
	Category    *CategoryRef `json:"category"`
	ImageURL    string       `json:"image_url"`
	Owner       *uuid.UUID   `json:"owner" swaggertype:"string" format:"uuid"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func newProductResponse(p *domain.Product) ProductResponse {
	resp := ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       p.Price.StringFixed(service.PriceMaxDecimalPlaces),
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		Owner:       p.OwnerID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Category != nil {
		resp.Category = &CategoryRef{ID: p.Category.ID, Name: p.Category.Name}
	}
	return resp
}

// ProductListResponse is one page of products
type ProductListResponse struct {
	Count    int               `json:"count"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
	Results  []ProductResponse `json:"results"`
}

// CategoryRequest is the body of POST /api/categories
type CategoryRequest struct {
	Name *string `json:"name" validate:"required" example:"Tools"`
}

// CategoryResponse is the wire representation of a category
type CategoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func newCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}
