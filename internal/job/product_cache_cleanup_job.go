package job

import (
	"context"
	"time"
)

// ProductCacheCleanupJob deletes product cache rows older than maxAgeDays. Rows younger
// than that but past the read-time TTL stay in place and are simply treated as misses.
type ProductCacheCleanupJob struct {
	repo       cacheDeleter
	maxAgeDays int
	now        func() time.Time
}

func NewProductCacheCleanupJob(repo cacheDeleter, maxAgeDays int) *ProductCacheCleanupJob {
	return &ProductCacheCleanupJob{repo: repo, maxAgeDays: maxAgeDays, now: time.Now}
}

func (j *ProductCacheCleanupJob) Name() string {
	return "product_cache_cleanup"
}

func (j *ProductCacheCleanupJob) Run(ctx context.Context) error {
	return deleteOlderThan(ctx, j.Name(), j.repo, j.maxAgeDays, j.now(), time.Time.UnixNano)
}
