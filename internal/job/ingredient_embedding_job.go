package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type pendingEmbedder interface {
	EmbedPending(ctx context.Context, batch int) (int, error)
}

type IngredientEmbeddingJob struct {
	ingredients pendingEmbedder
	batchSize   int
}

func NewIngredientEmbeddingJob(ingredients pendingEmbedder, batchSize int) *IngredientEmbeddingJob {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &IngredientEmbeddingJob{ingredients: ingredients, batchSize: batchSize}
}

func (j *IngredientEmbeddingJob) Name() string {
	return "ingredient_embedding"
}

func (j *IngredientEmbeddingJob) Run(ctx context.Context) error {
	if j.ingredients == nil {
		return nil
	}
	done, err := j.ingredients.EmbedPending(ctx, j.batchSize)
	if done > 0 {
		logutil.GetLogger(ctx).Info("pending ingredients embedded", zap.Int("count", done))
	}
	return err
}
