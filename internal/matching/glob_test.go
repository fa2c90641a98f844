package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchURL(t *testing.T) {
	tests := []struct {
		pattern string
		url     string
		want    bool
	}{
		{"shopify.com/*", "https://shop.myshopify.com/admin/orders.json", true},
		{"api.example.com/*", "https://api.example.com/v1/products?page=2", true},
		{"*/graphql", "https://api.github.com/graphql", true},
		{"/graphql", "https://api.github.com/graphql", true},
		{"/graphql", "https://api.github.com/graphql/extra", false},
		{"https://api.example.com/*", "http://api.example.com/x", false},
		{"example.com/v?/users", "https://example.com/v2/users", true},
		{"stripe.com/*", "https://api.example.com/stripe", false},
		{"", "https://example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchURL(tt.pattern, tt.url))
		})
	}
}

func TestContainsURL(t *testing.T) {
	assert.True(t, ContainsURL("example.com/orders", "https://api.example.com/orders?page=1"))
	assert.True(t, ContainsURL("orders*page=2", "https://api.example.com/orders?page=2"))
	assert.False(t, ContainsURL("example.com/orders", "https://api.example.com/products"))
	assert.False(t, ContainsURL("", "https://api.example.com/products"))
}

func TestFirstMatch(t *testing.T) {
	patterns := []string{"github.com/*", "api.github.com/graphql", "*"}

	assert.Equal(t, 0, FirstMatch(patterns, "https://api.github.com/graphql"))
	assert.Equal(t, 2, FirstMatch(patterns, "https://example.com"))
	assert.Equal(t, -1, FirstMatch(nil, "https://example.com"))
}
