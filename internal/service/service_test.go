package service

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grubyapp/gruby/internal/kroger"
	"github.com/grubyapp/gruby/internal/productcache"
	"github.com/grubyapp/gruby/internal/testutil"
)

type fakeSearcher struct {
	mu       sync.Mutex
	calls    int
	products []kroger.Product
	err      error
}

func (f *fakeSearcher) SearchProducts(ctx context.Context, term, locationID string, limit int) ([]kroger.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func (f *fakeSearcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func product(t *testing.T, id, description string) kroger.Product {
	t.Helper()
	raw := []byte(`{"productId":"` + id + `","description":"` + description + `","items":[{"price":{"regular":2.5}}]}`)
	var p kroger.Product
	require.NoError(t, json.Unmarshal(raw, &p))
	return p
}

func newProductService(t *testing.T, searcher ProductSearcher, now func() time.Time) *ProductService {
	t.Helper()
	store, err := productcache.NewStore("sql", productcache.StoreArgs{DB: testutil.OpenTestDB(t)})
	require.NoError(t, err)
	return NewProductService(searcher, productcache.New(store, productcache.WithClock(now)), 10)
}

// keywordEmbedder maps each known word to an axis so related names share direction.
type keywordEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

var keywordAxes = []string{"milk", "egg", "flour", "butter"}

func (k *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.calls++
	if k.err != nil {
		return nil, k.err
	}
	vec := make([]float32, len(keywordAxes)+1)
	vec[len(keywordAxes)] = 0.1
	lower := strings.ToLower(text)
	for i, word := range keywordAxes {
		if strings.Contains(lower, word) {
			vec[i] = 1
		}
	}
	var sum float32
	for _, v := range vec {
		sum += v * v
	}
	if sum > 0 {
		scale := float32(1 / math.Sqrt(float64(sum)))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}
