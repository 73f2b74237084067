package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/grubyapp/gruby/internal/model"
	"github.com/grubyapp/gruby/internal/pkg/dbutil"
)

type EmbeddingCacheRepo struct {
	db *sql.DB
}

func NewEmbeddingCacheRepo(db *sql.DB) *EmbeddingCacheRepo {
	return &EmbeddingCacheRepo{db: db}
}

func (r *EmbeddingCacheRepo) Get(ctx context.Context, modelName, taskType, contentHash string) (*model.EmbeddingCacheEntry, bool, error) {
	where := map[string]interface{}{
		"model_name":   modelName,
		"task_type":    taskType,
		"content_hash": contentHash,
	}
	sqlStr, args, err := builder.BuildSelect("embedding_cache", where, []string{"embedding", "ctime"})
	if err != nil {
		return nil, false, err
	}
	sqlStr, args = dbutil.Bind(r.db, sqlStr, args)
	var (
		raw   string
		ctime int64
	)
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&raw, &ctime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var vec pgvector.Vector
	if err := vec.Scan(raw); err != nil {
		return nil, false, err
	}
	return &model.EmbeddingCacheEntry{
		ModelName:   modelName,
		TaskType:    taskType,
		ContentHash: contentHash,
		Embedding:   vec.Slice(),
		Ctime:       ctime,
	}, true, nil
}

// Save replaces the vector stored for the same model, task type and content hash.
func (r *EmbeddingCacheRepo) Save(ctx context.Context, item *model.EmbeddingCacheEntry) error {
	const query = `
		INSERT INTO embedding_cache (model_name, task_type, content_hash, embedding, ctime)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (model_name, task_type, content_hash) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			ctime = EXCLUDED.ctime
	`
	sqlStr, args := dbutil.Bind(r.db, query, []interface{}{
		item.ModelName,
		item.TaskType,
		item.ContentHash,
		pgvector.NewVector(item.Embedding),
		item.Ctime,
	})
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *EmbeddingCacheRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	return deleteBefore(ctx, r.db, "embedding_cache", "ctime", cutoff)
}
