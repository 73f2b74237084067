// Package embedcache produces unit-length text embeddings and memoizes them per process.
package embedcache

import (
	"context"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/grubyapp/gruby/internal/ai"
	"github.com/grubyapp/gruby/internal/matching"
	appErr "github.com/grubyapp/gruby/internal/pkg/errors"
)

const (
	DefaultTTL       = time.Hour
	DefaultDimension = 256
	DefaultSize      = 10000
)

type cachedEmbedding struct {
	vector   []float32
	cachedAt time.Time
}

// Generator embeds text through an ai.IEmbedder, truncating and L2-normalizing the
// result, and caches vectors by normalized text for a fixed TTL. Staleness is checked at
// read time only; the LRU bound is the only eviction.
type Generator struct {
	next      ai.IEmbedder
	cache     *lru.Cache[string, cachedEmbedding]
	group     singleflight.Group
	ttl       time.Duration
	dimension int
	taskType  string
	now       func() time.Time
}

type Option func(*Generator)

func WithTTL(ttl time.Duration) Option {
	return func(g *Generator) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

func WithDimension(dim int) Option {
	return func(g *Generator) {
		if dim > 0 {
			g.dimension = dim
		}
	}
}

func WithTaskType(taskType string) Option {
	return func(g *Generator) {
		g.taskType = strings.TrimSpace(taskType)
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

func NewGenerator(next ai.IEmbedder, size int, opts ...Option) (*Generator, error) {
	if next == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New[string, cachedEmbedding](size)
	if err != nil {
		return nil, fmt.Errorf("init embedding cache: %w", err)
	}
	g := &Generator{
		next:      next,
		cache:     cache,
		ttl:       DefaultTTL,
		dimension: DefaultDimension,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Embed returns the embedding for text. Only the cache key is normalized; the provider
// always receives the raw text.
func (g *Generator) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("empty embedding text: %w", appErr.ErrInvalid)
	}
	key := matching.Normalize(text)
	if vec, ok := g.lookup(key); ok {
		logutil.GetLogger(ctx).Debug("embedding cache hit", zap.String("key", key))
		return vec, nil
	}
	// The shared call outlives any single waiter; each caller only stops waiting on its
	// own cancellation.
	shared := context.WithoutCancel(ctx)
	ch := g.group.DoChan(key, func() (interface{}, error) {
		return g.compute(shared, key, text)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneEmbedding(res.Val.([]float32)), nil
	}
}

func (g *Generator) lookup(key string) ([]float32, bool) {
	entry, ok := g.cache.Get(key)
	if !ok {
		return nil, false
	}
	if g.now().Sub(entry.cachedAt) >= g.ttl {
		return nil, false
	}
	return cloneEmbedding(entry.vector), true
}

func (g *Generator) compute(ctx context.Context, key, text string) ([]float32, error) {
	raw, err := g.next.Embed(ctx, text, g.taskType)
	if err != nil {
		return nil, err
	}
	if len(raw) < g.dimension {
		// TODO: decide between padding and rejecting once the production model's
		// native size is confirmed; dot products against 256-dim vectors score 0 today.
		logutil.GetLogger(ctx).Warn("embedding shorter than target dimension",
			zap.Int("got", len(raw)), zap.Int("want", g.dimension))
	}
	vec := L2Normalize(Truncate(raw, g.dimension))
	g.cache.Add(key, cachedEmbedding{vector: vec, cachedAt: g.now()})
	return vec, nil
}

func (g *Generator) Dimension() int {
	return g.dimension
}

func (g *Generator) ModelName() string {
	return g.next.ModelName()
}

// Purge drops every cached vector.
func (g *Generator) Purge() {
	g.cache.Purge()
}

func (g *Generator) Len() int {
	return g.cache.Len()
}
