package model

import "encoding/json"

// ProductCacheEntry is one cached ingredient match for a store location.
// Product is the store API record, kept verbatim. CachedAt is in unix nanoseconds.
type ProductCacheEntry struct {
	CacheKey       string          `json:"cache_key"`
	IngredientName string          `json:"ingredient_name"`
	LocationID     string          `json:"location_id"`
	Product        json.RawMessage `json:"product"`
	CachedAt       int64           `json:"cached_at"`
}
