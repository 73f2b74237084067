package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/grubyapp/gruby/internal/ai"
	"github.com/grubyapp/gruby/internal/model"
)

type cacheRepo interface {
	Get(ctx context.Context, modelName, taskType, contentHash string) (*model.EmbeddingCacheEntry, bool, error)
	Save(ctx context.Context, item *model.EmbeddingCacheEntry) error
}

// WrapDBCacheToEmbedder persists raw provider vectors so restarts do not re-embed.
// Cache failures are logged and never fail the embedding call. Rows older than maxAge
// are re-embedded and overwritten; maxAge <= 0 keeps rows until the cleanup job drops them.
func WrapDBCacheToEmbedder(e ai.IEmbedder, repo cacheRepo, maxAge time.Duration) ai.IEmbedder {
	if e == nil || repo == nil {
		return e
	}
	return &dbEmbedder{next: e, repo: repo, maxAge: maxAge, now: time.Now}
}

type dbEmbedder struct {
	next   ai.IEmbedder
	repo   cacheRepo
	maxAge time.Duration
	now    func() time.Time
}

func (d *dbEmbedder) expired(entry *model.EmbeddingCacheEntry) bool {
	return d.maxAge > 0 && d.now().Sub(time.Unix(entry.Ctime, 0)) >= d.maxAge
}

func (d *dbEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	contentHash, modelName := buildCacheKey(d.next.ModelName(), text)
	logger := logutil.GetLogger(ctx)
	entry, ok, err := d.repo.Get(ctx, modelName, taskType, contentHash)
	switch {
	case err != nil:
		logger.Warn("read embedding cache failed", zap.Error(err))
	case ok && d.expired(entry):
		logger.Debug("embedding cache expired (db)", zap.String("task_type", taskType), zap.Int64("ctime", entry.Ctime))
	case ok:
		logger.Debug("embedding cache hit (db)", zap.String("task_type", taskType))
		return entry.Embedding, nil
	}
	res, err := d.next.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	if err := d.repo.Save(ctx, &model.EmbeddingCacheEntry{
		ModelName:   modelName,
		TaskType:    taskType,
		ContentHash: contentHash,
		Embedding:   res,
		Ctime:       d.now().Unix(),
	}); err != nil {
		logger.Warn("failed to cache embedding", zap.Error(err))
	}
	return res, nil
}

func (d *dbEmbedder) ModelName() string {
	return d.next.ModelName()
}

func buildCacheKey(modelName, text string) (string, string) {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		modelName = "unknown"
	}
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:]), modelName
}
