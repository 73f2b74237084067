package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/grubyapp/gruby/internal/ai"
	"github.com/grubyapp/gruby/internal/config"
	"github.com/grubyapp/gruby/internal/embedcache"
	"github.com/grubyapp/gruby/internal/job"
	"github.com/grubyapp/gruby/internal/kroger"
	"github.com/grubyapp/gruby/internal/productcache"
	"github.com/grubyapp/gruby/internal/repo"
	"github.com/grubyapp/gruby/internal/schedule"
	"github.com/grubyapp/gruby/internal/service"
)

type app struct {
	cfg         *config.Config
	db          *sql.DB
	generator   *embedcache.Generator
	products    *service.ProductService
	ingredients *service.IngredientService
	scheduler   *schedule.CronScheduler
}

func buildEmbedder(cfg *config.Config, db *sql.DB) (*embedcache.Generator, error) {
	entries := make([]ai.EmbedderEntry, 0, len(cfg.Embedding.Providers))
	for _, p := range cfg.Embedding.Providers {
		args := p.Data
		if args == nil {
			args = map[string]interface{}{}
		}
		provider, err := ai.NewEmbedProvider(p.Provider, args)
		if err != nil {
			return nil, fmt.Errorf("init embedding provider %s: %w", p.Name, err)
		}
		entries = append(entries, ai.EmbedderEntry{Name: p.Name, Embedder: ai.NewEmbedder(provider, p.Model)})
	}
	ttl := time.Duration(cfg.Embedding.CacheTTLSeconds) * time.Second
	embedder := ai.NewGroupEmbedder(entries)
	if cfg.Embedding.DBCache {
		embedder = embedcache.WrapDBCacheToEmbedder(embedder, repo.NewEmbeddingCacheRepo(db), ttl)
	}
	return embedcache.NewGenerator(embedder, cfg.Embedding.CacheSize,
		embedcache.WithTTL(ttl),
		embedcache.WithDimension(cfg.Embedding.Dimension),
		embedcache.WithTaskType(cfg.Embedding.TaskType),
	)
}

func buildApp(cfg *config.Config, db *sql.DB) (*app, error) {
	logger := logutil.GetLogger(context.Background())
	generator, err := buildEmbedder(cfg, db)
	if err != nil {
		return nil, err
	}
	store, err := productcache.NewStore(cfg.ProductCache.Store, productcache.StoreArgs{DB: db, Redis: cfg.ProductCache.Redis})
	if err != nil {
		return nil, fmt.Errorf("init product cache store: %w", err)
	}
	cache := productcache.New(store, productcache.WithTTL(time.Duration(cfg.ProductCache.TTLHours)*time.Hour))

	var searcher service.ProductSearcher
	client, err := kroger.New(cfg.Kroger)
	if err != nil {
		logger.Warn("kroger client disabled, product matching serves cache only", zap.Error(err))
	} else {
		searcher = client
	}

	products := service.NewProductService(searcher, cache, cfg.Kroger.SearchLimit)
	ingredients := service.NewIngredientService(repo.NewIngredientRepo(db), generator, products, cfg.Search.MinScore)

	a := &app{
		cfg:         cfg,
		db:          db,
		generator:   generator,
		products:    products,
		ingredients: ingredients,
		scheduler:   schedule.NewCronScheduler(),
	}
	if err := a.registerJobs(); err != nil {
		return nil, err
	}
	return a, nil
}

type jobEntry struct {
	job  schedule.Job
	spec string
}

// registerJobs adds every job to the scheduler. Jobs with an empty spec are manual only.
func (a *app) registerJobs() error {
	jobsCfg := a.cfg.Jobs
	entries := []jobEntry{
		{job.NewIngredientEmbeddingJob(a.ingredients, jobsCfg.IngredientEmbedding.BatchSize), jobsCfg.IngredientEmbedding.Spec},
	}
	if a.cfg.ProductCache.Store == "sql" {
		entries = append(entries, jobEntry{
			job.NewProductCacheCleanupJob(repo.NewProductCacheRepo(a.db), jobsCfg.ProductCacheCleanup.MaxAgeDays),
			jobsCfg.ProductCacheCleanup.Spec,
		})
	}
	if a.cfg.Embedding.DBCache {
		entries = append(entries, jobEntry{
			job.NewEmbeddingCacheCleanupJob(repo.NewEmbeddingCacheRepo(a.db), jobsCfg.EmbeddingCacheCleanup.MaxAgeDays),
			jobsCfg.EmbeddingCacheCleanup.Spec,
		})
	}
	for _, entry := range entries {
		if err := a.scheduler.AddJob(entry.job, entry.spec); err != nil {
			return fmt.Errorf("schedule %s: %w", entry.job.Name(), err)
		}
	}
	return nil
}
