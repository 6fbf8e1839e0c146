package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

// SlugMaxLength bounds the derived product slug
const SlugMaxLength = 50

// Product represents a product in the catalog
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Slug        string          `json:"slug" db:"slug"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	CategoryID  *uuid.UUID      `json:"category_id" db:"category_id"`
	Category    *Category       `json:"category,omitempty" db:"-"`
	ImageURL    string          `json:"image_url" db:"image_url"`
	OwnerID     *uuid.UUID      `json:"owner" db:"owner_id"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Category represents a product category
type Category struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// EnsureSlug derives the slug from the name. An existing slug is never replaced.
func (p *Product) EnsureSlug() {
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
}

// Slugify turns a display name into a lowercase, hyphenated ASCII slug
func Slugify(name string) string {
	s := slug.Make(name)
	if len(s) > SlugMaxLength {
		s = strings.TrimRight(s[:SlugMaxLength], "-")
	}
	return s
}
