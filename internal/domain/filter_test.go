package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrdering(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []OrderField
	}{
		{"empty falls back to newest first", "", DefaultProductOrdering},
		{"ascending price", "price", []OrderField{{Field: "price"}}},
		{"descending name", "-name", []OrderField{{Field: "name", Desc: true}}},
		{"multiple keys", "-price, name", []OrderField{{Field: "price", Desc: true}, {Field: "name"}}},
		{"unknown keys ignored", "stock,-price", []OrderField{{Field: "price", Desc: true}}},
		{"only unknown keys", "owner", DefaultProductOrdering},
		{"duplicates keep first", "name,-name", []OrderField{{Field: "name"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOrdering(tt.raw))
		})
	}
}

func TestSearchTerms(t *testing.T) {
	tests := []struct {
		search string
		want   []string
	}{
		{"", []string{}},
		{"   ", []string{}},
		{"phone", []string{"phone"}},
		{" red  phone ", []string{"red", "phone"}},
		{"phone,case", []string{"phone", "case"}},
		{"phone, ,case\tred", []string{"phone", "case", "red"}},
	}

	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			terms := ProductFilter{Search: tt.search}.SearchTerms()
			if terms == nil {
				terms = []string{}
			}
			assert.Equal(t, tt.want, terms)
		})
	}
}

func TestProductPageNavigation(t *testing.T) {
	page := &ProductPage{Total: 25, Number: 1, Size: 10}
	assert.True(t, page.HasNext())
	assert.False(t, page.HasPrevious())

	page.Number = 3
	assert.False(t, page.HasNext())
	assert.True(t, page.HasPrevious())

	empty := &ProductPage{Total: 0, Number: 1, Size: 10}
	assert.False(t, empty.HasNext())
	assert.False(t, empty.HasPrevious())
}
