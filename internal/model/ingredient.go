package model

// Ingredient is a recipe ingredient and, once matched, the store product it links to.
// Link fields are empty until the first sync.
type Ingredient struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Embedding       []float32 `json:"-"`
	KrogerProductID string    `json:"kroger_product_id,omitempty"`
	LinkConfidence  *float64  `json:"link_confidence,omitempty"`
	LinkUpdatedAt   *int64    `json:"link_updated_at,omitempty"`
	Ctime           int64     `json:"ctime"`
	Mtime           int64     `json:"mtime"`
}
