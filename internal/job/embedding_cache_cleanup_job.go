package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const defaultMaxAgeDays = 30

type cacheDeleter interface {
	DeleteBefore(ctx context.Context, cutoff int64) (int64, error)
}

// EmbeddingCacheCleanupJob prunes persisted provider vectors older than maxAgeDays.
type EmbeddingCacheCleanupJob struct {
	repo       cacheDeleter
	maxAgeDays int
	now        func() time.Time
}

func NewEmbeddingCacheCleanupJob(repo cacheDeleter, maxAgeDays int) *EmbeddingCacheCleanupJob {
	return &EmbeddingCacheCleanupJob{repo: repo, maxAgeDays: maxAgeDays, now: time.Now}
}

func (j *EmbeddingCacheCleanupJob) Name() string {
	return "embedding_cache_cleanup"
}

func (j *EmbeddingCacheCleanupJob) Run(ctx context.Context) error {
	return deleteOlderThan(ctx, j.Name(), j.repo, j.maxAgeDays, j.now(), time.Time.Unix)
}

// deleteOlderThan passes repo a cutoff expressed in the table's timestamp unit.
func deleteOlderThan(ctx context.Context, name string, repo cacheDeleter, maxAgeDays int, now time.Time, unit func(time.Time) int64) error {
	if repo == nil {
		return nil
	}
	if maxAgeDays <= 0 {
		maxAgeDays = defaultMaxAgeDays
	}
	cutoff := unit(now.Add(-time.Duration(maxAgeDays) * 24 * time.Hour))
	deleted, err := repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("cache rows pruned", zap.String("job", name), zap.Int64("deleted", deleted))
	return nil
}
