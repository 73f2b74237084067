package matching

import "strings"

const (
	ExactScore      = 1.0
	ContainsScore   = 0.9
	MaxOverlapScore = 0.8
	NoRelationScore = 0.0
)

// ScoreMatch is a lexical heuristic, not a semantic one: synonyms, plurals and units are
// not understood.
func ScoreMatch(ingredientName, productName string) float64 {
	ingredient := Normalize(ingredientName)
	product := Normalize(productName)
	if ingredient == product {
		return ExactScore
	}
	if strings.Contains(product, ingredient) || strings.Contains(ingredient, product) {
		return ContainsScore
	}
	ingredientWords := strings.Fields(ingredient)
	productWords := strings.Fields(product)
	productSet := make(map[string]struct{}, len(productWords))
	for _, w := range productWords {
		productSet[w] = struct{}{}
	}
	overlap := 0
	for _, w := range ingredientWords {
		if _, ok := productSet[w]; ok {
			overlap++
		}
	}
	if overlap == 0 {
		return NoRelationScore
	}
	denom := len(ingredientWords)
	if len(productWords) > denom {
		denom = len(productWords)
	}
	return min(MaxOverlapScore, float64(overlap)/float64(denom))
}
