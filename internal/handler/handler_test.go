package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grubyapp/gruby/internal/ai"
	"github.com/grubyapp/gruby/internal/kroger"
	"github.com/grubyapp/gruby/internal/pkg/errcode"
)

func TestRoutesRequireToken(t *testing.T) {
	env := setupRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/embeddings", strings.NewReader(`{"text":"milk"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var result apiResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Equal(t, errcode.ErrUnauthorized, result.Code)
}

func TestEmbeddingHandler(t *testing.T) {
	env := setupRouter(t)

	result := env.do(t, http.MethodPost, "/api/v1/embeddings", `{"text":"Whole Milk"}`)
	require.Zero(t, result.Code)
	var data struct {
		Model     string    `json:"model"`
		Dimension int       `json:"dimension"`
		Embedding []float32 `json:"embedding"`
	}
	require.NoError(t, json.Unmarshal(result.Data, &data))
	require.Equal(t, "stub", data.Model)
	require.Equal(t, 256, data.Dimension)
	require.Len(t, data.Embedding, 256)

	result = env.do(t, http.MethodPost, "/api/v1/embeddings", `{"text":""}`)
	require.Equal(t, errcode.ErrInvalid, result.Code)
}

func TestEmbeddingHandlerErrorCodes(t *testing.T) {
	env := setupRouter(t)

	env.embedder.err = ai.ErrNotConfigured
	result := env.do(t, http.MethodPost, "/api/v1/embeddings", `{"text":"flour"}`)
	require.Equal(t, errcode.ErrAIUnavailable, result.Code)

	env.embedder.err = &ai.ProviderError{Provider: "stub", Err: errors.New("quota exceeded")}
	result = env.do(t, http.MethodPost, "/api/v1/embeddings", `{"text":"sugar"}`)
	require.Equal(t, errcode.ErrUpstream, result.Code)

	env.embedder.err = errors.New("disk full")
	result = env.do(t, http.MethodPost, "/api/v1/embeddings", `{"text":"salt"}`)
	require.Equal(t, errcode.ErrInternal, result.Code)
}

func productFixture(t *testing.T, id, description string) kroger.Product {
	t.Helper()
	var p kroger.Product
	require.NoError(t, json.Unmarshal([]byte(`{"productId":"`+id+`","description":"`+description+`"}`), &p))
	return p
}

func TestProductMatchHandler(t *testing.T) {
	env := setupRouter(t)
	env.searcher.products = []kroger.Product{productFixture(t, "0001", "Large Brown Eggs")}

	result := env.do(t, http.MethodGet, "/api/v1/products/match?ingredient=eggs&location_id=store-1", "")
	require.Zero(t, result.Code)
	var data struct {
		ProductID  string  `json:"product_id"`
		Confidence float64 `json:"confidence"`
		Cached     bool    `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(result.Data, &data))
	require.Equal(t, "0001", data.ProductID)
	require.Equal(t, 0.9, data.Confidence)
	require.False(t, data.Cached)

	result = env.do(t, http.MethodGet, "/api/v1/products/match?ingredient=eggs&location_id=store-1", "")
	require.NoError(t, json.Unmarshal(result.Data, &data))
	require.True(t, data.Cached)

	result = env.do(t, http.MethodGet, "/api/v1/products/match?ingredient=eggs", "")
	require.Equal(t, errcode.ErrInvalid, result.Code)

	env.searcher.products = nil
	result = env.do(t, http.MethodGet, "/api/v1/products/match?ingredient=kale&location_id=store-1", "")
	require.Equal(t, errcode.ErrNotFound, result.Code)

	env.searcher.err = errors.New("status 500")
	result = env.do(t, http.MethodGet, "/api/v1/products/match?ingredient=kale&location_id=store-1", "")
	require.Equal(t, errcode.ErrUpstream, result.Code)
}

func TestIngredientHandlers(t *testing.T) {
	env := setupRouter(t)

	result := env.do(t, http.MethodPost, "/api/v1/ingredients", `{"name":"Brown Eggs"}`)
	require.Zero(t, result.Code)
	var created struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(result.Data, &created))
	require.Equal(t, "brown eggs", created.Name)

	result = env.do(t, http.MethodPost, "/api/v1/ingredients", `{"name":"brown eggs"}`)
	require.Equal(t, errcode.ErrConflict, result.Code)
	result = env.do(t, http.MethodPost, "/api/v1/ingredients", `{"name":""}`)
	require.Equal(t, errcode.ErrInvalid, result.Code)

	result = env.do(t, http.MethodGet, "/api/v1/ingredients", "")
	require.Zero(t, result.Code)
	var listed []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(result.Data, &listed))
	require.Len(t, listed, 1)

	result = env.do(t, http.MethodGet, "/api/v1/ingredients?limit=abc", "")
	require.Equal(t, errcode.ErrInvalid, result.Code)

	result = env.do(t, http.MethodGet, "/api/v1/ingredients/search?q=brown%20eggs", "")
	require.Zero(t, result.Code)
	var hits []struct {
		Ingredient struct {
			ID string `json:"id"`
		} `json:"ingredient"`
		Score float32 `json:"score"`
	}
	require.NoError(t, json.Unmarshal(result.Data, &hits))
	require.Len(t, hits, 1)
	require.Equal(t, created.ID, hits[0].Ingredient.ID)
	require.InDelta(t, 1.0, hits[0].Score, 1e-5)

	env.searcher.products = []kroger.Product{productFixture(t, "0042", "Brown Eggs")}
	result = env.do(t, http.MethodPost, "/api/v1/ingredients/"+created.ID+"/sync", `{"location_id":"store-9"}`)
	require.Zero(t, result.Code)
	var synced struct {
		Updated    bool `json:"updated"`
		Ingredient struct {
			KrogerProductID string `json:"kroger_product_id"`
		} `json:"ingredient"`
	}
	require.NoError(t, json.Unmarshal(result.Data, &synced))
	require.True(t, synced.Updated)
	require.Equal(t, "0042", synced.Ingredient.KrogerProductID)

	result = env.do(t, http.MethodPost, "/api/v1/ingredients/missing/sync", `{"location_id":"store-9"}`)
	require.Equal(t, errcode.ErrNotFound, result.Code)
	result = env.do(t, http.MethodPost, "/api/v1/ingredients/"+created.ID+"/sync", `{}`)
	require.Equal(t, errcode.ErrInvalid, result.Code)
}
