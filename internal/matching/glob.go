package matching

import (
	"strings"

	"github.com/tidwall/match"
)

// MatchURL reports whether rawURL matches the glob pattern.
//
// A `*` matches any run of characters (including `/`) and `?` matches a single
// character. The pattern is anchored at the end only: a leading `*` is implied,
// so "shopify.com/*" matches "https://shop.myshopify.com/admin/orders".
func MatchURL(pattern, rawURL string) bool {
	if pattern == "" {
		return false
	}
	if !strings.HasPrefix(pattern, "*") {
		pattern = "*" + pattern
	}
	return match.Match(rawURL, pattern)
}

// ContainsURL reports whether pattern matches anywhere inside rawURL.
// Used when deleting stored records by URL, where "api.example.com/orders"
// should hit every record under that prefix regardless of query string.
func ContainsURL(pattern, rawURL string) bool {
	if pattern == "" {
		return false
	}
	return match.Match(rawURL, "*"+pattern+"*")
}

// FirstMatch returns the index of the first pattern matching rawURL, or -1.
func FirstMatch(patterns []string, rawURL string) int {
	for i, p := range patterns {
		if MatchURL(p, rawURL) {
			return i
		}
	}
	return -1
}
