package model

// EmbeddingCacheEntry is a raw provider vector persisted under the provider model, the
// task type and the sha256 of the exact input text.
type EmbeddingCacheEntry struct {
	ModelName   string    `json:"model_name"`
	TaskType    string    `json:"task_type"`
	ContentHash string    `json:"content_hash"`
	Embedding   []float32 `json:"embedding"`
	Ctime       int64     `json:"ctime"`
}
