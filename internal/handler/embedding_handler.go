package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/grubyapp/gruby/internal/embedcache"
	"github.com/grubyapp/gruby/internal/pkg/errcode"
	"github.com/grubyapp/gruby/internal/pkg/response"
)

type EmbeddingHandler struct {
	generator *embedcache.Generator
}

func NewEmbeddingHandler(generator *embedcache.Generator) *EmbeddingHandler {
	return &EmbeddingHandler{generator: generator}
}

type embeddingRequest struct {
	Text string `json:"text"`
}

type embeddingResponse struct {
	Model     string    `json:"model"`
	Dimension int       `json:"dimension"`
	Embedding []float32 `json:"embedding"`
}

func (h *EmbeddingHandler) Create(c *gin.Context) {
	var req embeddingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	vec, err := h.generator.Embed(c.Request.Context(), req.Text)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, embeddingResponse{
		Model:     h.generator.ModelName(),
		Dimension: len(vec),
		Embedding: vec,
	})
}
