package memory

import (
	"context"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"

	"github.com/google/uuid"
)

type userRepository struct {
	store *Store
}

// NewUserRepository returns a UserRepository backed by store
func NewUserRepository(store *Store) repository.UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	r.store.mutex.Lock()
	defer r.store.mutex.Unlock()

	for _, existing := range r.store.users {
		if existing.Username == user.Username {
			return repository.ErrUserAlreadyExists
		}
	}

	stored := *user
	r.store.users[user.ID] = &stored
	return nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.store.mutex.RLock()
	defer r.store.mutex.RUnlock()

	for _, user := range r.store.users {
		if user.Username == username {
			found := *user
			return &found, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.store.mutex.RLock()
	defer r.store.mutex.RUnlock()

	user, exists := r.store.users[id]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	found := *user
	return &found, nil
}
