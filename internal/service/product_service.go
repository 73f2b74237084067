package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/grubyapp/gruby/internal/kroger"
	"github.com/grubyapp/gruby/internal/matching"
	appErr "github.com/grubyapp/gruby/internal/pkg/errors"
	"github.com/grubyapp/gruby/internal/productcache"
)

type ProductSearcher interface {
	SearchProducts(ctx context.Context, term, locationID string, limit int) ([]kroger.Product, error)
}

type MatchResult struct {
	ProductID    string          `json:"product_id"`
	Description  string          `json:"description"`
	RegularPrice float64         `json:"regular_price"`
	Confidence   float64         `json:"confidence"`
	Cached       bool            `json:"cached"`
	Product      json.RawMessage `json:"product"`
}

type ProductService struct {
	searcher    ProductSearcher
	cache       *productcache.Cache
	searchLimit int
}

func NewProductService(searcher ProductSearcher, cache *productcache.Cache, searchLimit int) *ProductService {
	return &ProductService{searcher: searcher, cache: cache, searchLimit: searchLimit}
}

// Match finds the store product that best names ingredientName at locationID, consulting
// the product cache first.
func (s *ProductService) Match(ctx context.Context, ingredientName, locationID string) (*MatchResult, error) {
	ingredientName = strings.TrimSpace(ingredientName)
	if ingredientName == "" || strings.TrimSpace(locationID) == "" {
		return nil, appErr.ErrInvalid
	}
	logger := logutil.GetLogger(ctx).With(zap.String("ingredient", ingredientName), zap.String("location_id", locationID))
	if raw, ok := s.cache.Get(ctx, ingredientName, locationID); ok {
		var product kroger.Product
		if err := json.Unmarshal(raw, &product); err == nil {
			return newMatchResult(ingredientName, &product, raw, true), nil
		}
		logger.Warn("cached product is not decodable, refetching")
	}
	if s.searcher == nil {
		return nil, fmt.Errorf("product search not configured: %w", appErr.ErrUpstream)
	}
	products, err := s.searcher.SearchProducts(ctx, ingredientName, locationID, s.searchLimit)
	if err != nil {
		logger.Error("product search failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", appErr.ErrUpstream, err)
	}
	best, score := pickBest(ingredientName, products)
	if best == nil {
		return nil, appErr.ErrNotFound
	}
	raw := best.Raw
	if len(raw) == 0 {
		if raw, err = json.Marshal(best); err != nil {
			return nil, err
		}
	}
	s.cache.Put(ctx, ingredientName, locationID, raw)
	logger.Info("product matched", zap.String("product_id", best.ProductID), zap.Float64("confidence", score))
	return newMatchResult(ingredientName, best, raw, false), nil
}

// pickBest returns the highest scoring product; ties keep the earlier (API-ranked) one.
func pickBest(ingredientName string, products []kroger.Product) (*kroger.Product, float64) {
	var (
		best      *kroger.Product
		bestScore = -1.0
	)
	for i := range products {
		score := matching.ScoreMatch(ingredientName, products[i].Description)
		if score > bestScore {
			best = &products[i]
			bestScore = score
		}
	}
	return best, bestScore
}

func newMatchResult(ingredientName string, product *kroger.Product, raw json.RawMessage, cached bool) *MatchResult {
	return &MatchResult{
		ProductID:    product.ProductID,
		Description:  product.Description,
		RegularPrice: product.RegularPrice(),
		Confidence:   matching.ScoreMatch(ingredientName, product.Description),
		Cached:       cached,
		Product:      raw,
	}
}
