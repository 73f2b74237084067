package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/grubyapp/gruby/internal/ai"
	"github.com/grubyapp/gruby/internal/embedcache"
	"github.com/grubyapp/gruby/internal/matching"
	"github.com/grubyapp/gruby/internal/model"
	appErr "github.com/grubyapp/gruby/internal/pkg/errors"
	"github.com/grubyapp/gruby/internal/repo"
)

type TextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type SearchHit struct {
	Ingredient model.Ingredient `json:"ingredient"`
	Score      float32          `json:"score"`
}

type LinkResult struct {
	Ingredient *model.Ingredient `json:"ingredient"`
	Match      *MatchResult      `json:"match"`
	Updated    bool              `json:"updated"`
}

type IngredientService struct {
	ingredients *repo.IngredientRepo
	embedder    TextEmbedder
	products    *ProductService
	minScore    float32
	now         func() time.Time
}

func NewIngredientService(ingredients *repo.IngredientRepo, embedder TextEmbedder, products *ProductService, minScore float64) *IngredientService {
	return &IngredientService{
		ingredients: ingredients,
		embedder:    embedder,
		products:    products,
		minScore:    float32(minScore),
		now:         time.Now,
	}
}

// Create stores a new ingredient. An embedding failure is not fatal: the ingredient is
// left pending for the embedding job.
func (s *IngredientService) Create(ctx context.Context, name string) (*model.Ingredient, error) {
	name = matching.Normalize(name)
	if name == "" {
		return nil, appErr.ErrInvalid
	}
	now := s.now().Unix()
	item := &model.Ingredient{ID: newID(), Name: name, Ctime: now, Mtime: now}
	logger := logutil.GetLogger(ctx).With(zap.String("ingredient", name))
	if vec, err := s.embedder.Embed(ctx, name); err != nil {
		logger.Warn("embed ingredient failed, left pending", zap.Error(err))
	} else {
		item.Embedding = vec
	}
	if err := s.ingredients.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *IngredientService) Get(ctx context.Context, id string) (*model.Ingredient, error) {
	return s.ingredients.GetByID(ctx, id)
}

func (s *IngredientService) List(ctx context.Context, limit, offset int) ([]model.Ingredient, error) {
	return s.ingredients.List(ctx, limit, offset)
}

// Search ranks stored ingredients by cosine similarity to query. Stored vectors are unit
// length, so the dot product is the cosine.
func (s *IngredientService) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("query", query))
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.Error("failed to embed search query", zap.Error(err))
		return nil, err
	}
	items, err := s.ingredients.ListEmbedded(ctx)
	if err != nil {
		logger.Error("failed to list ingredient embeddings", zap.Error(err))
		return nil, err
	}
	hits := make([]SearchHit, 0, len(items))
	for _, item := range items {
		score := embedcache.Dot(queryVec, item.Embedding)
		if score >= s.minScore {
			hits = append(hits, SearchHit{Ingredient: item, Score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// SyncProductLink matches the ingredient at locationID and records the product only if
// the update gate allows replacing the current link.
func (s *IngredientService) SyncProductLink(ctx context.Context, id, locationID string) (*LinkResult, error) {
	item, err := s.ingredients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	match, err := s.products.Match(ctx, item.Name, locationID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	updated := matching.ShouldUpdateLink(linkOf(item), match.Confidence, now)
	logger := logutil.GetLogger(ctx).With(
		zap.String("ingredient_id", id),
		zap.String("candidate", match.ProductID),
		zap.Float64("confidence", match.Confidence),
	)
	if updated {
		if err := s.ingredients.UpdateLink(ctx, id, match.ProductID, match.Confidence, now.Unix()); err != nil {
			return nil, err
		}
		ts := now.Unix()
		confidence := match.Confidence
		item.KrogerProductID = match.ProductID
		item.LinkConfidence = &confidence
		item.LinkUpdatedAt = &ts
		item.Mtime = ts
		logger.Info("ingredient product link updated")
	} else {
		logger.Debug("ingredient product link kept")
	}
	return &LinkResult{Ingredient: item, Match: match, Updated: updated}, nil
}

func linkOf(item *model.Ingredient) matching.Link {
	link := matching.Link{ProductID: item.KrogerProductID, ConfidenceScore: item.LinkConfidence}
	if item.LinkUpdatedAt != nil {
		ts := time.Unix(*item.LinkUpdatedAt, 0)
		link.LastUpdated = &ts
	}
	return link
}

// EmbedPending embeds up to batch ingredients that have no vector yet. A missing provider
// credential aborts the run; other failures skip the ingredient.
func (s *IngredientService) EmbedPending(ctx context.Context, batch int) (int, error) {
	items, err := s.ingredients.ListMissingEmbedding(ctx, batch)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, item := range items {
		vec, err := s.embedder.Embed(ctx, item.Name)
		if err != nil {
			if errors.Is(err, ai.ErrNotConfigured) {
				return done, err
			}
			logutil.GetLogger(ctx).Warn("embed pending ingredient failed", zap.String("ingredient_id", item.ID), zap.Error(err))
			continue
		}
		if err := s.ingredients.SaveEmbedding(ctx, item.ID, vec, s.now().Unix()); err != nil {
			return done, fmt.Errorf("save embedding for %s: %w", item.ID, err)
		}
		done++
	}
	return done, nil
}
