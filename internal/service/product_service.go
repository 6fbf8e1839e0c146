package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ProductNameMaxLength = 255

	// Prices are stored as DECIMAL(10, 2)
	PriceMaxDigits        = 10
	PriceMaxDecimalPlaces = 2
	PriceMaxIntegerDigits = PriceMaxDigits - PriceMaxDecimalPlaces

	// LastPage selects the final page of a listing
	LastPage = "last"
)

// ProductChanges carries caller supplied product fields. A nil field was not sent.
type ProductChanges struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	ImageURL    *string
	// CategorySet is true when category_id was sent; CategoryID nil then clears the category
	CategorySet bool
	CategoryID  *uuid.UUID
	// Invalid holds format errors found while decoding. They are reported together
	// with the field errors found here.
	Invalid []FieldError
}

// ProductService defines the interface for product business logic
type ProductService interface {
	Create(ctx context.Context, changes ProductChanges, owner *uuid.UUID) (*domain.Product, error)
	// Update applies changes to an existing product. Unless partial, name, description
	// and price must all be present and an absent stock resets to 0.
	Update(ctx context.Context, id uuid.UUID, changes ProductChanges, partial bool) (*domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns the requested page ("", a 1-based number or "last") of matching products
	List(ctx context.Context, filter domain.ProductFilter, page string) (*domain.ProductPage, error)
}

type productService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	pageSize   int
	now        func() time.Time
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	pageSize int,
) ProductService {
	return &productService{
		products:   products,
		categories: categories,
		pageSize:   pageSize,
		now:        time.Now,
	}
}

func (s *productService) Create(ctx context.Context, changes ProductChanges, owner *uuid.UUID) (*domain.Product, error) {
	if err := s.validate(ctx, changes, false); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	product := &domain.Product{
		ID:        uuid.New(),
		OwnerID:   owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyChanges(product, changes)
	product.EnsureSlug()

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return s.Get(ctx, product.ID)
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, changes ProductChanges, partial bool) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	if err := s.validate(ctx, changes, partial); err != nil {
		return nil, err
	}

	if !partial && changes.Stock == nil {
		stock := 0
		changes.Stock = &stock
	}

	applyChanges(product, changes)
	product.EnsureSlug()
	product.UpdatedAt = s.now().UTC()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return s.Get(ctx, id)
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func (s *productService) List(ctx context.Context, filter domain.ProductFilter, page string) (*domain.ProductPage, error) {
	if len(filter.Ordering) == 0 {
		filter.Ordering = domain.DefaultProductOrdering
	}

	total, err := s.products.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	number, err := resolvePage(page, total, s.pageSize)
	if err != nil {
		return nil, err
	}

	items, err := s.products.List(ctx, filter, s.pageSize, (number-1)*s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return &domain.ProductPage{
		Items:  items,
		Total:  total,
		Number: number,
		Size:   s.pageSize,
	}, nil
}

// resolvePage maps the raw page parameter to a 1-based page number. The first page
// always exists, even for an empty listing.
func resolvePage(raw string, total, size int) (int, error) {
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}

	raw = strings.TrimSpace(raw)
	switch raw {
	case "":
		return 1, nil
	case LastPage:
		return pages, nil
	}

	number, err := strconv.Atoi(raw)
	if err != nil || number < 1 || number > pages {
		return 0, ErrInvalidPage
	}
	return number, nil
}

func (s *productService) validate(ctx context.Context, changes ProductChanges, partial bool) error {
	verr := &ValidationError{}

	switch {
	case changes.Name == nil:
		if !partial {
			verr.Add("name", msgRequired)
		}
	case strings.TrimSpace(*changes.Name) == "":
		verr.Add("name", "Name cannot be empty.")
	case utf8.RuneCountInString(strings.TrimSpace(*changes.Name)) > ProductNameMaxLength:
		verr.Add("name", fmt.Sprintf("Ensure this field has no more than %d characters.", ProductNameMaxLength))
	}

	if changes.Description == nil && !partial {
		verr.Add("description", msgRequired)
	}

	if changes.Price == nil {
		if !partial {
			verr.Add("price", msgRequired)
		}
	} else if msg := validatePrice(*changes.Price); msg != "" {
		verr.Add("price", msg)
	}

	if changes.Stock != nil && *changes.Stock < 0 {
		verr.Add("stock", "Stock must be non-negative.")
	}

	if changes.CategorySet && changes.CategoryID != nil {
		if _, err := s.categories.FindByID(ctx, *changes.CategoryID); err != nil {
			if !errors.Is(err, repository.ErrCategoryNotFound) {
				return fmt.Errorf("failed to find category: %w", err)
			}
			verr.Add("category_id", fmt.Sprintf("Invalid pk \"%s\" - object does not exist.", changes.CategoryID.String()))
		}
	}

	for _, fe := range changes.Invalid {
		verr.Add(fe.Field, fe.Message)
	}

	return verr.Err()
}

// validatePrice checks precision as written by the caller, so "1.500" has three decimal places
func validatePrice(price decimal.Decimal) string {
	digits, decimals := priceDigits(price)
	switch {
	case digits > PriceMaxDigits:
		return fmt.Sprintf("Ensure that there are no more than %d digits in total.", PriceMaxDigits)
	case decimals > PriceMaxDecimalPlaces:
		return fmt.Sprintf("Ensure that there are no more than %d decimal places.", PriceMaxDecimalPlaces)
	case digits-decimals > PriceMaxIntegerDigits:
		return fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", PriceMaxIntegerDigits)
	case price.IsNegative():
		return "Price must be non-negative."
	}
	return ""
}

// priceDigits returns the total and fractional digit counts of price. Leading zeros of a
// pure fraction count as digits: 0.001 has three of each.
func priceDigits(price decimal.Decimal) (digits, decimals int) {
	coefficient := len(new(big.Int).Abs(price.Coefficient()).String())
	exponent := int(price.Exponent())
	if exponent >= 0 {
		return coefficient + exponent, 0
	}

	decimals = -exponent
	if decimals > coefficient {
		return decimals, decimals
	}
	return coefficient, decimals
}

func applyChanges(product *domain.Product, changes ProductChanges) {
	if changes.Name != nil {
		product.Name = strings.TrimSpace(*changes.Name)
	}
	if changes.Description != nil {
		product.Description = *changes.Description
	}
	if changes.Price != nil {
		product.Price = changes.Price.Round(PriceMaxDecimalPlaces)
	}
	if changes.Stock != nil {
		product.Stock = *changes.Stock
	}
	if changes.ImageURL != nil {
		product.ImageURL = strings.TrimSpace(*changes.ImageURL)
	}
	if changes.CategorySet {
		product.CategoryID = changes.CategoryID
		product.Category = nil
	}
}
