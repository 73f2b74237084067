package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/grubyapp/gruby/internal/middleware"
)

type RouterDeps struct {
	Embeddings  *EmbeddingHandler
	Products    *ProductHandler
	Ingredients *IngredientHandler
	JWTSecret   []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.POST("/embeddings", deps.Embeddings.Create)

	authGroup.GET("/products/match", deps.Products.Match)

	authGroup.POST("/ingredients", deps.Ingredients.Create)
	authGroup.GET("/ingredients", deps.Ingredients.List)
	authGroup.GET("/ingredients/search", deps.Ingredients.Search)
	authGroup.POST("/ingredients/:id/sync", deps.Ingredients.Sync)
}
