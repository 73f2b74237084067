package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/grubyapp/gruby/internal/embedcache"
	"github.com/grubyapp/gruby/internal/handler"
	"github.com/grubyapp/gruby/internal/kroger"
	"github.com/grubyapp/gruby/internal/middleware"
	"github.com/grubyapp/gruby/internal/pkg/jwt"
	"github.com/grubyapp/gruby/internal/productcache"
	"github.com/grubyapp/gruby/internal/repo"
	"github.com/grubyapp/gruby/internal/service"
	"github.com/grubyapp/gruby/internal/testutil"
)

var jwtSecret = []byte("test-secret")

type stubEmbedder struct {
	mu  sync.Mutex
	err error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	vec := make([]float32, 300)
	for i := range vec {
		vec[i] = float32(len(text) + i%7)
	}
	return vec, nil
}

func (s *stubEmbedder) ModelName() string { return "stub" }

type stubSearcher struct {
	products []kroger.Product
	err      error
}

func (s *stubSearcher) SearchProducts(ctx context.Context, term, locationID string, limit int) ([]kroger.Product, error) {
	return s.products, s.err
}

type testEnv struct {
	router   http.Handler
	embedder *stubEmbedder
	searcher *stubSearcher
	token    string
}

func setupRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn := testutil.OpenTestDB(t)
	env := &testEnv{embedder: &stubEmbedder{}, searcher: &stubSearcher{}}

	generator, err := embedcache.NewGenerator(env.embedder, 64)
	require.NoError(t, err)
	store, err := productcache.NewStore("sql", productcache.StoreArgs{DB: conn})
	require.NoError(t, err)
	productService := service.NewProductService(env.searcher, productcache.New(store), 10)
	ingredientService := service.NewIngredientService(repo.NewIngredientRepo(conn), generator, productService, 0.5)

	deps := handler.RouterDeps{
		Embeddings:  handler.NewEmbeddingHandler(generator),
		Products:    handler.NewProductHandler(productService),
		Ingredients: handler.NewIngredientHandler(ingredientService, 10),
		JWTSecret:   jwtSecret,
	}
	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)
	env.router = engine

	env.token, err = jwt.GenerateToken("tester", jwtSecret, time.Hour)
	require.NoError(t, err)
	return env
}

type apiResult struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path, body string) apiResult {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)
	resp := httptest.NewRecorder()
	e.router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	var result apiResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	return result
}
