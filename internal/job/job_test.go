package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grubyapp/gruby/internal/model"
	"github.com/grubyapp/gruby/internal/repo"
	"github.com/grubyapp/gruby/internal/testutil"
)

func TestProductCacheCleanupJob(t *testing.T) {
	ctx := context.Background()
	cacheRepo := repo.NewProductCacheRepo(testutil.OpenTestDB(t))
	now := time.Unix(1_700_000_000, 0)
	for key, age := range map[string]time.Duration{
		"old_store-1":    31 * 24 * time.Hour,
		"recent_store-1": 2 * 24 * time.Hour,
	} {
		require.NoError(t, cacheRepo.Save(ctx, &model.ProductCacheEntry{
			CacheKey:   key,
			LocationID: "store-1",
			Product:    json.RawMessage(`{}`),
			CachedAt:   now.Add(-age).UnixNano(),
		}))
	}

	j := NewProductCacheCleanupJob(cacheRepo, 30)
	j.now = func() time.Time { return now }
	require.Equal(t, "product_cache_cleanup", j.Name())
	require.NoError(t, j.Run(ctx))

	_, ok, err := cacheRepo.Get(ctx, "old_store-1")
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = cacheRepo.Get(ctx, "recent_store-1")
	require.NoError(t, err)
	require.True(t, ok)
}

type recordingDeleter struct {
	cutoff int64
	err    error
}

func (r *recordingDeleter) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	r.cutoff = cutoff
	return 0, r.err
}

func TestEmbeddingCacheCleanupJobDefaultsMaxAge(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	deleter := &recordingDeleter{}
	j := NewEmbeddingCacheCleanupJob(deleter, 0)
	j.now = func() time.Time { return now }
	require.NoError(t, j.Run(context.Background()))
	require.Equal(t, now.Add(-30*24*time.Hour).Unix(), deleter.cutoff)

	deleter.err = errors.New("locked")
	require.Error(t, j.Run(context.Background()))

	require.NoError(t, NewEmbeddingCacheCleanupJob(nil, 7).Run(context.Background()))
}

type fakePending struct {
	batch int
	done  int
	err   error
}

func (f *fakePending) EmbedPending(ctx context.Context, batch int) (int, error) {
	f.batch = batch
	return f.done, f.err
}

func TestIngredientEmbeddingJob(t *testing.T) {
	pending := &fakePending{done: 3}
	j := NewIngredientEmbeddingJob(pending, 0)
	require.Equal(t, "ingredient_embedding", j.Name())
	require.NoError(t, j.Run(context.Background()))
	require.Equal(t, 50, pending.batch)

	pending.err = errors.New("not configured")
	require.Error(t, j.Run(context.Background()))
}
