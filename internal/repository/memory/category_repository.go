package memory

import (
	"context"
	"sort"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"

	"github.com/google/uuid"
)

type categoryRepository struct {
	store *Store
}

// NewCategoryRepository returns a CategoryRepository backed by store
func NewCategoryRepository(store *Store) repository.CategoryRepository {
	return &categoryRepository{store: store}
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	r.store.mutex.Lock()
	defer r.store.mutex.Unlock()

	for _, existing := range r.store.categories {
		if existing.Name == category.Name {
			return repository.ErrCategoryAlreadyExists
		}
	}

	stored := *category
	r.store.categories[category.ID] = &stored
	return nil
}

func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	r.store.mutex.RLock()
	defer r.store.mutex.RUnlock()

	categories := make([]*domain.Category, 0, len(r.store.categories))
	for _, category := range r.store.categories {
		found := *category
		categories = append(categories, &found)
	}

	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	r.store.mutex.RLock()
	defer r.store.mutex.RUnlock()

	category, exists := r.store.categories[id]
	if !exists {
		return nil, repository.ErrCategoryNotFound
	}
	found := *category
	return &found, nil
}

// Delete removes the category and clears it from every product that referenced it
func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mutex.Lock()
	defer r.store.mutex.Unlock()

	if _, exists := r.store.categories[id]; !exists {
		return repository.ErrCategoryNotFound
	}
	delete(r.store.categories, id)

	for _, product := range r.store.products {
		if product.CategoryID != nil && *product.CategoryID == id {
			product.CategoryID = nil
		}
	}
	return nil
}
