package domain

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Sortable product fields
const (
	OrderByPrice     = "price"
	OrderByName      = "name"
	OrderByCreatedAt = "created_at"
)

var productOrderFields = map[string]bool{
	OrderByPrice:     true,
	OrderByName:      true,
	OrderByCreatedAt: true,
}

// OrderField is a single sort key
type OrderField struct {
	Field string
	Desc  bool
}

// DefaultProductOrdering lists newest products first
var DefaultProductOrdering = []OrderField{{Field: OrderByCreatedAt, Desc: true}}

// ProductFilter narrows a product listing. Zero values impose no constraint.
type ProductFilter struct {
	Search   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Category string
	Ordering []OrderField
}

// SearchTerms splits Search on whitespace and commas. A product matches when every
// term is found in its name or description.
func (f ProductFilter) SearchTerms() []string {
	return strings.FieldsFunc(f.Search, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// ParseOrdering reads a comma separated list such as "-price,name".
// Unknown fields are dropped; an empty result yields the default ordering.
func ParseOrdering(raw string) []OrderField {
	var fields []OrderField
	seen := make(map[string]bool)

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		if !productOrderFields[name] || seen[name] {
			continue
		}
		seen[name] = true
		fields = append(fields, OrderField{Field: name, Desc: desc})
	}

	if len(fields) == 0 {
		return DefaultProductOrdering
	}
	return fields
}

// ProductPage is one page of a filtered product listing
type ProductPage struct {
	Items  []*Product
	Total  int
	Number int
	Size   int
}

// HasNext reports whether a later page exists
func (p *ProductPage) HasNext() bool {
	return p.Number*p.Size < p.Total
}

// HasPrevious reports whether an earlier page exists
func (p *ProductPage) HasPrevious() bool {
	return p.Number > 1
}
