// Package matching scores how well a store product names a recipe ingredient and decides
// when a stored ingredient-to-product link may be replaced.
package matching

import "strings"

// Normalize lowercases s and trims surrounding whitespace.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
