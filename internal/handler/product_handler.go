package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/grubyapp/gruby/internal/pkg/errcode"
	"github.com/grubyapp/gruby/internal/pkg/response"
	"github.com/grubyapp/gruby/internal/service"
)

type ProductHandler struct {
	products *service.ProductService
}

func NewProductHandler(products *service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

func (h *ProductHandler) Match(c *gin.Context) {
	ingredient := strings.TrimSpace(c.Query("ingredient"))
	locationID := c.Query("location_id")
	if ingredient == "" || strings.TrimSpace(locationID) == "" {
		response.Error(c, errcode.ErrInvalid, "ingredient and location_id required")
		return
	}
	res, err := h.products.Match(c.Request.Context(), ingredient, locationID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, res)
}
