package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/didi/gendry/builder"

	"github.com/grubyapp/gruby/internal/model"
	"github.com/grubyapp/gruby/internal/pkg/dbutil"
)

type ProductCacheRepo struct {
	db *sql.DB
}

func NewProductCacheRepo(db *sql.DB) *ProductCacheRepo {
	return &ProductCacheRepo{db: db}
}

func (r *ProductCacheRepo) Get(ctx context.Context, cacheKey string) (*model.ProductCacheEntry, bool, error) {
	where := map[string]interface{}{"cache_key": cacheKey}
	sqlStr, args, err := builder.BuildSelect("product_cache", where, []string{"cache_key", "ingredient_name", "location_id", "product", "cached_at"})
	if err != nil {
		return nil, false, err
	}
	sqlStr, args = dbutil.Bind(r.db, sqlStr, args)
	var (
		item    model.ProductCacheEntry
		product string
	)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	if err := row.Scan(&item.CacheKey, &item.IngredientName, &item.LocationID, &product, &item.CachedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	item.Product = []byte(product)
	return &item, true, nil
}

// Save overwrites any existing entry for the same key.
func (r *ProductCacheRepo) Save(ctx context.Context, item *model.ProductCacheEntry) error {
	const query = `
		INSERT INTO product_cache (cache_key, ingredient_name, location_id, product, cached_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET
			ingredient_name = EXCLUDED.ingredient_name,
			location_id = EXCLUDED.location_id,
			product = EXCLUDED.product,
			cached_at = EXCLUDED.cached_at
	`
	sqlStr, args := dbutil.Bind(r.db, query, []interface{}{
		item.CacheKey,
		item.IngredientName,
		item.LocationID,
		string(item.Product),
		item.CachedAt,
	})
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ProductCacheRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	return deleteBefore(ctx, r.db, "product_cache", "cached_at", cutoff)
}
