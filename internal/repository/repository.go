package repository

import (
	"database/sql"

	"github.com/google/uuid"
)

// Repositories groups the data access objects used by the services
type Repositories struct {
	Users         UserRepository
	RefreshTokens RefreshTokenRepository
	Categories    CategoryRepository
	Products      ProductRepository
}

// NewRepositories builds PostgreSQL backed repositories sharing one pool
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(db),
		RefreshTokens: NewRefreshTokenRepository(db),
		Categories:    NewCategoryRepository(db),
		Products:      NewProductRepository(db),
	}
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func uuidPtr(id uuid.NullUUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	v := id.UUID
	return &v
}
