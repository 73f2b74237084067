package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/grubyapp/gruby/internal/model"
	"github.com/grubyapp/gruby/internal/pkg/dbutil"
	appErr "github.com/grubyapp/gruby/internal/pkg/errors"
)

var ingredientFields = []string{"id", "name", "embedding", "kroger_product_id", "link_confidence", "link_updated_at", "ctime", "mtime"}

type IngredientRepo struct {
	db *sql.DB
}

func NewIngredientRepo(db *sql.DB) *IngredientRepo {
	return &IngredientRepo{db: db}
}

func (r *IngredientRepo) Create(ctx context.Context, item *model.Ingredient) error {
	data := map[string]interface{}{
		"id":                item.ID,
		"name":              item.Name,
		"embedding":         vectorValue(item.Embedding),
		"kroger_product_id": item.KrogerProductID,
		"link_confidence":   item.LinkConfidence,
		"link_updated_at":   item.LinkUpdatedAt,
		"ctime":             item.Ctime,
		"mtime":             item.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("ingredients", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Bind(r.db, sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *IngredientRepo) GetByID(ctx context.Context, id string) (*model.Ingredient, error) {
	return r.getOne(ctx, map[string]interface{}{"id": id})
}

func (r *IngredientRepo) GetByName(ctx context.Context, name string) (*model.Ingredient, error) {
	return r.getOne(ctx, map[string]interface{}{"name": name})
}

func (r *IngredientRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.Ingredient, error) {
	where["_limit"] = []uint{0, 1}
	items, err := r.query(ctx, where)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &items[0], nil
}

func (r *IngredientRepo) List(ctx context.Context, limit, offset int) ([]model.Ingredient, error) {
	where := map[string]interface{}{"_orderby": "name asc"}
	if limit > 0 {
		if offset < 0 {
			offset = 0
		}
		where["_limit"] = []uint{uint(offset), uint(limit)}
	}
	return r.query(ctx, where)
}

// ListEmbedded returns every ingredient that already has a vector.
func (r *IngredientRepo) ListEmbedded(ctx context.Context) ([]model.Ingredient, error) {
	where := map[string]interface{}{
		"_custom_embedded": builder.Custom("embedding IS NOT NULL"),
	}
	return r.query(ctx, where)
}

func (r *IngredientRepo) ListMissingEmbedding(ctx context.Context, limit int) ([]model.Ingredient, error) {
	where := map[string]interface{}{
		"_custom_pending": builder.Custom("embedding IS NULL"),
		"_orderby":        "ctime asc",
	}
	if limit > 0 {
		where["_limit"] = []uint{0, uint(limit)}
	}
	return r.query(ctx, where)
}

func (r *IngredientRepo) SaveEmbedding(ctx context.Context, id string, embedding []float32, mtime int64) error {
	return r.update(ctx, id, map[string]interface{}{
		"embedding": vectorValue(embedding),
		"mtime":     mtime,
	})
}

func (r *IngredientRepo) UpdateLink(ctx context.Context, id, productID string, confidence float64, updatedAt int64) error {
	return r.update(ctx, id, map[string]interface{}{
		"kroger_product_id": productID,
		"link_confidence":   confidence,
		"link_updated_at":   updatedAt,
		"mtime":             updatedAt,
	})
}

func (r *IngredientRepo) update(ctx context.Context, id string, update map[string]interface{}) error {
	sqlStr, args, err := builder.BuildUpdate("ingredients", map[string]interface{}{"id": id}, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Bind(r.db, sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *IngredientRepo) query(ctx context.Context, where map[string]interface{}) ([]model.Ingredient, error) {
	sqlStr, args, err := builder.BuildSelect("ingredients", where, ingredientFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Bind(r.db, sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Ingredient, 0)
	for rows.Next() {
		item, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func scanIngredient(rows *sql.Rows) (*model.Ingredient, error) {
	var (
		item       model.Ingredient
		embedding  sql.NullString
		confidence sql.NullFloat64
		linkedAt   sql.NullInt64
	)
	if err := rows.Scan(&item.ID, &item.Name, &embedding, &item.KrogerProductID, &confidence, &linkedAt, &item.Ctime, &item.Mtime); err != nil {
		return nil, err
	}
	if embedding.Valid && embedding.String != "" {
		var vec pgvector.Vector
		if err := vec.Scan(embedding.String); err != nil {
			return nil, err
		}
		item.Embedding = vec.Slice()
	}
	if confidence.Valid {
		v := confidence.Float64
		item.LinkConfidence = &v
	}
	if linkedAt.Valid {
		v := linkedAt.Int64
		item.LinkUpdatedAt = &v
	}
	return &item, nil
}

func vectorValue(values []float32) interface{} {
	if len(values) == 0 {
		return nil
	}
	return pgvector.NewVector(values)
}
