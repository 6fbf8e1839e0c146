package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"

	"github.com/google/uuid"
)

type productRepository struct {
	store *Store
}

// NewProductRepository returns a ProductRepository backed by store
func NewProductRepository(store *Store) repository.ProductRepository {
	return &productRepository{store: store}
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	r.store.mutex.Lock()
	defer r.store.mutex.Unlock()

	if err := r.checkReferences(product); err != nil {
		return err
	}
	if product.OwnerID != nil {
		if _, exists := r.store.users[*product.OwnerID]; !exists {
			return repository.ErrUserNotFound
		}
	}

	r.store.products[product.ID] = cloneProduct(product)
	return nil
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	r.store.mutex.Lock()
	defer r.store.mutex.Unlock()

	stored, exists := r.store.products[product.ID]
	if !exists {
		return repository.ErrProductNotFound
	}
	if err := r.checkReferences(product); err != nil {
		return err
	}

	updated := cloneProduct(product)
	updated.OwnerID = stored.OwnerID
	updated.CreatedAt = stored.CreatedAt
	r.store.products[product.ID] = updated
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mutex.Lock()
	defer r.store.mutex.Unlock()

	if _, exists := r.store.products[id]; !exists {
		return repository.ErrProductNotFound
	}
	delete(r.store.products, id)
	return nil
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	r.store.mutex.RLock()
	defer r.store.mutex.RUnlock()

	product, exists := r.store.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	return r.withCategory(product), nil
}

func (r *productRepository) Count(ctx context.Context, filter domain.ProductFilter) (int, error) {
	r.store.mutex.RLock()
	defer r.store.mutex.RUnlock()

	return len(r.filter(filter)), nil
}

func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter, limit, offset int) ([]*domain.Product, error) {
	r.store.mutex.RLock()
	defer r.store.mutex.RUnlock()

	matched := r.filter(filter)
	sortProducts(matched, filter.Ordering)

	if offset >= len(matched) {
		return []*domain.Product{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *productRepository) checkReferences(product *domain.Product) error {
	if product.CategoryID != nil {
		if _, exists := r.store.categories[*product.CategoryID]; !exists {
			return repository.ErrCategoryNotFound
		}
	}
	return nil
}

// filter returns copies of the matching products with their categories attached
func (r *productRepository) filter(filter domain.ProductFilter) []*domain.Product {
	terms := filter.SearchTerms()
	for i, term := range terms {
		terms[i] = strings.ToLower(term)
	}
	category := strings.ToLower(filter.Category)

	matched := []*domain.Product{}
	for _, stored := range r.store.products {
		product := r.withCategory(stored)

		if !matchesTerms(product, terms) {
			continue
		}
		if filter.MinPrice != nil && product.Price.LessThan(*filter.MinPrice) {
			continue
		}
		if filter.MaxPrice != nil && product.Price.GreaterThan(*filter.MaxPrice) {
			continue
		}
		if category != "" &&
			(product.Category == nil || !strings.Contains(strings.ToLower(product.Category.Name), category)) {
			continue
		}

		matched = append(matched, product)
	}
	return matched
}

func matchesTerms(product *domain.Product, terms []string) bool {
	name := strings.ToLower(product.Name)
	description := strings.ToLower(product.Description)
	for _, term := range terms {
		if !strings.Contains(name, term) && !strings.Contains(description, term) {
			return false
		}
	}
	return true
}

func (r *productRepository) withCategory(stored *domain.Product) *domain.Product {
	product := cloneProduct(stored)
	if product.CategoryID != nil {
		if category, exists := r.store.categories[*product.CategoryID]; exists {
			c := *category
			product.Category = &c
		}
	}
	return product
}

func sortProducts(products []*domain.Product, ordering []domain.OrderField) {
	if len(ordering) == 0 {
		ordering = domain.DefaultProductOrdering
	}

	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		for _, o := range ordering {
			cmp := compareField(a, b, o.Field)
			if cmp == 0 {
				continue
			}
			if o.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return bytes.Compare(a.ID[:], b.ID[:]) < 0
	})
}

func compareField(a, b *domain.Product, field string) int {
	switch field {
	case domain.OrderByPrice:
		return a.Price.Cmp(b.Price)
	case domain.OrderByName:
		return strings.Compare(a.Name, b.Name)
	case domain.OrderByCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return 0
}

func cloneProduct(product *domain.Product) *domain.Product {
	c := *product
	c.CategoryID = copyUUID(product.CategoryID)
	c.OwnerID = copyUUID(product.OwnerID)
	c.Category = nil
	return &c
}
