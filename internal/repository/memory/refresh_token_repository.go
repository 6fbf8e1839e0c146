package memory

import (
	"context"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"

	"github.com/google/uuid"
)

type refreshTokenRepository struct {
	store *Store
}

// NewRefreshTokenRepository returns a RefreshTokenRepository backed by store
func NewRefreshTokenRepository(store *Store) repository.RefreshTokenRepository {
	return &refreshTokenRepository{store: store}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	r.store.mutex.Lock()
	defer r.store.mutex.Unlock()

	if _, exists := r.store.users[token.UserID]; !exists {
		return repository.ErrUserNotFound
	}

	stored := *token
	r.store.refreshTokens[token.Token] = &stored
	return nil
}

func (r *refreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	r.store.mutex.RLock()
	defer r.store.mutex.RUnlock()

	stored, exists := r.store.refreshTokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if stored.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	found := *stored
	return &found, nil
}

func (r *refreshTokenRepository) Revoke(ctx context.Context, token string) error {
	r.store.mutex.Lock()
	defer r.store.mutex.Unlock()

	stored, exists := r.store.refreshTokens[token]
	if !exists || stored.Revoked {
		return repository.ErrRefreshTokenNotFound
	}
	stored.Revoked = true
	return nil
}

func (r *refreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	r.store.mutex.Lock()
	defer r.store.mutex.Unlock()

	revoked := 0
	for _, stored := range r.store.refreshTokens {
		if stored.UserID == userID && !stored.Revoked {
			stored.Revoked = true
			revoked++
		}
	}
	return revoked, nil
}
