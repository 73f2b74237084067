package productcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/grubyapp/gruby/internal/model"
)

type redisStore struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
}

// NewRedisStore keeps one JSON value per composite key. A zero retention keeps entries
// until overwritten.
func NewRedisStore(client *redis.Client, prefix string, retention time.Duration) Store {
	return &redisStore{client: client, prefix: prefix, retention: retention}
}

func (s *redisStore) Get(ctx context.Context, cacheKey string) (*model.ProductCacheEntry, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var item model.ProductCacheEntry
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, false, fmt.Errorf("decode cached product: %w", err)
	}
	return &item, true, nil
}

func (s *redisStore) Save(ctx context.Context, item *model.ProductCacheEntry) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+item.CacheKey, data, s.retention).Err()
}

func createRedisStore(args StoreArgs) (Store, error) {
	if args.Redis.Addr == "" {
		return nil, fmt.Errorf("product_cache.redis.addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     args.Redis.Addr,
		Password: args.Redis.Password,
		DB:       args.Redis.DB,
	})
	retention := time.Duration(args.Redis.RetentionHours) * time.Hour
	return NewRedisStore(client, args.Redis.KeyPrefix, retention), nil
}

func init() {
	Register("redis", createRedisStore)
}
