package productcache

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/grubyapp/gruby/internal/config"
	"github.com/grubyapp/gruby/internal/model"
	"github.com/grubyapp/gruby/internal/repo"
)

// Store is the durable, shared key-value backend behind Cache. Save is a full overwrite.
type Store interface {
	Get(ctx context.Context, cacheKey string) (*model.ProductCacheEntry, bool, error)
	Save(ctx context.Context, item *model.ProductCacheEntry) error
}

type StoreArgs struct {
	DB    *sql.DB
	Redis config.RedisConfig
}

type Factory func(args StoreArgs) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func NewStore(name string, args StoreArgs) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("product_cache.store is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported product cache store: %s", name)
	}
	return factory(args)
}

func createSQLStore(args StoreArgs) (Store, error) {
	if args.DB == nil {
		return nil, fmt.Errorf("sql product cache store requires a database")
	}
	return repo.NewProductCacheRepo(args.DB), nil
}

func init() {
	Register("sql", createSQLStore)
}
