package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"product-catalog/internal/domain"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	// Count returns the number of products matching filter
	Count(ctx context.Context, filter domain.ProductFilter) (int, error)
	// List returns one window of the products matching filter in filter.Ordering order
	List(ctx context.Context, filter domain.ProductFilter, limit, offset int) ([]*domain.Product, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `
	p.id, p.name, p.slug, p.description, p.price, p.stock,
	p.category_id, c.name, c.created_at,
	p.image_url, p.owner_id, p.created_at, p.updated_at
`

const productFrom = `
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
`

var productOrderColumns = map[string]string{
	domain.OrderByPrice:     "p.price",
	domain.OrderByName:      "p.name",
	domain.OrderByCreatedAt: "p.created_at",
}

// Create inserts a new product using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, slug, description, price, stock, category_id, image_url, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Slug,
		product.Description,
		product.Price,
		product.Stock,
		nullUUID(product.CategoryID),
		product.ImageURL,
		nullUUID(product.OwnerID),
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return mapProductWriteError("create", err)
	}

	return nil
}

// Update overwrites the mutable columns of an existing product
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, slug = $3, description = $4, price = $5, stock = $6,
		    category_id = $7, image_url = $8, updated_at = $9
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Slug,
		product.Description,
		product.Price,
		product.Stock,
		nullUUID(product.CategoryID),
		product.ImageURL,
		product.UpdatedAt,
	)
	if err != nil {
		return mapProductWriteError("update", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product and its category
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := "SELECT " + productColumns + productFrom + " WHERE p.id = $1"

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

func (r *productRepository) Count(ctx context.Context, filter domain.ProductFilter) (int, error) {
	where, args := buildProductFilter(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) "+productFrom+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}

	return total, nil
}

func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter, limit, offset int) ([]*domain.Product, error) {
	where, args := buildProductFilter(filter)

	query := fmt.Sprintf("SELECT %s %s %s ORDER BY %s LIMIT $%d OFFSET $%d",
		productColumns, productFrom, where, buildProductOrdering(filter.Ordering), len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		product           domain.Product
		categoryID        uuid.NullUUID
		categoryName      sql.NullString
		categoryCreatedAt sql.NullTime
		ownerID           uuid.NullUUID
	)

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Slug,
		&product.Description,
		&product.Price,
		&product.Stock,
		&categoryID,
		&categoryName,
		&categoryCreatedAt,
		&product.ImageURL,
		&ownerID,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	product.CategoryID = uuidPtr(categoryID)
	product.OwnerID = uuidPtr(ownerID)
	if categoryID.Valid {
		product.Category = &domain.Category{
			ID:        categoryID.UUID,
			Name:      categoryName.String,
			CreatedAt: categoryCreatedAt.Time,
		}
	}

	return &product, nil
}

// buildProductFilter renders filter as a WHERE clause with numbered placeholders
func buildProductFilter(filter domain.ProductFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, term := range filter.SearchTerms() {
		p := next(containsPattern(term))
		conditions = append(conditions, fmt.Sprintf("(p.name ILIKE %s OR p.description ILIKE %s)", p, p))
	}
	if filter.MinPrice != nil {
		conditions = append(conditions, "p.price >= "+next(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, "p.price <= "+next(*filter.MaxPrice))
	}
	if filter.Category != "" {
		conditions = append(conditions, "c.name ILIKE "+next(containsPattern(filter.Category)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// buildProductOrdering renders an ORDER BY list. Only whitelisted columns are emitted
// and p.id always breaks ties so pages are stable.
func buildProductOrdering(ordering []domain.OrderField) string {
	if len(ordering) == 0 {
		ordering = domain.DefaultProductOrdering
	}

	var parts []string
	for _, o := range ordering {
		column, ok := productOrderColumns[o.Field]
		if !ok {
			continue
		}
		direction := "ASC"
		if o.Desc {
			direction = "DESC"
		}
		parts = append(parts, column+" "+direction)
	}

	return strings.Join(append(parts, "p.id ASC"), ", ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s literally anywhere in the value
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func mapProductWriteError(op string, err error) error {
	if constraint, ok := foreignKeyViolation(err); ok {
		switch constraint {
		case "fk_products_category":
			return ErrCategoryNotFound
		case "fk_products_owner":
			return ErrUserNotFound
		}
	}
	return fmt.Errorf("failed to %s product: %w", op, err)
}
