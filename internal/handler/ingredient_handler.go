package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/grubyapp/gruby/internal/pkg/errcode"
	"github.com/grubyapp/gruby/internal/pkg/response"
	"github.com/grubyapp/gruby/internal/service"
)

const maxPageSize = 200

type IngredientHandler struct {
	ingredients  *service.IngredientService
	defaultLimit int
}

func NewIngredientHandler(ingredients *service.IngredientService, defaultLimit int) *IngredientHandler {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &IngredientHandler{ingredients: ingredients, defaultLimit: defaultLimit}
}

type ingredientRequest struct {
	Name string `json:"name"`
}

type syncRequest struct {
	LocationID string `json:"location_id"`
}

func (h *IngredientHandler) Create(c *gin.Context) {
	var req ingredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		response.Error(c, errcode.ErrInvalid, "name required")
		return
	}
	item, err := h.ingredients.Create(c.Request.Context(), req.Name)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, item)
}

func (h *IngredientHandler) List(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		response.Error(c, errcode.ErrInvalid, "invalid limit")
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		response.Error(c, errcode.ErrInvalid, "invalid offset")
		return
	}
	items, err := h.ingredients.List(c.Request.Context(), min(limit, maxPageSize), offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, items)
}

func (h *IngredientHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		response.Error(c, errcode.ErrInvalid, "q required")
		return
	}
	limit, ok := queryInt(c, "limit", h.defaultLimit)
	if !ok {
		response.Error(c, errcode.ErrInvalid, "invalid limit")
		return
	}
	hits, err := h.ingredients.Search(c.Request.Context(), query, min(limit, maxPageSize))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, hits)
}

func (h *IngredientHandler) Sync(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if strings.TrimSpace(req.LocationID) == "" {
		response.Error(c, errcode.ErrInvalid, "location_id required")
		return
	}
	res, err := h.ingredients.SyncProductLink(c.Request.Context(), c.Param("id"), req.LocationID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, res)
}
