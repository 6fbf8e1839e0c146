package memory

import (
	"sync"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"

	"github.com/google/uuid"
)

// Store holds every entity of the in-memory engine behind a single lock so that
// cross-entity rules (category references, owner references) stay consistent.
type Store struct {
	mutex         sync.RWMutex
	users         map[uuid.UUID]*domain.User
	refreshTokens map[string]*domain.RefreshToken
	categories    map[uuid.UUID]*domain.Category
	products      map[uuid.UUID]*domain.Product
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:         make(map[uuid.UUID]*domain.User),
		refreshTokens: make(map[string]*domain.RefreshToken),
		categories:    make(map[uuid.UUID]*domain.Category),
		products:      make(map[uuid.UUID]*domain.Product),
	}
}

// NewRepositories builds repositories over a fresh in-memory store
func NewRepositories() *repository.Repositories {
	store := NewStore()
	return &repository.Repositories{
		Users:         &userRepository{store: store},
		RefreshTokens: &refreshTokenRepository{store: store},
		Categories:    &categoryRepository{store: store},
		Products:      &productRepository{store: store},
	}
}

func copyUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
