package matching

import "time"

const (
	// LinkMaxAge is how long a link is protected by its confidence score.
	LinkMaxAge = 7 * 24 * time.Hour
	// MinConfidenceGain is the absolute improvement a candidate needs to replace a fresh link.
	MinConfidenceGain = 0.10
)

// Link is the product currently recorded for an ingredient.
type Link struct {
	ProductID       string
	LastUpdated     *time.Time
	ConfidenceScore *float64
}

// ShouldUpdateLink reports whether a candidate match with candidateConfidence may
// replace existing. Rules are evaluated in order; the first that applies decides.
func ShouldUpdateLink(existing Link, candidateConfidence float64, now time.Time) bool {
	if existing.ProductID == "" {
		return true
	}
	if existing.LastUpdated != nil && now.Sub(*existing.LastUpdated) > LinkMaxAge {
		return true
	}
	current := 0.0
	if existing.ConfidenceScore != nil {
		current = *existing.ConfidenceScore
	}
	return candidateConfidence > current+MinConfidenceGain
}
