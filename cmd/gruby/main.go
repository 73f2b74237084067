package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/grubyapp/gruby/internal/config"
	"github.com/grubyapp/gruby/internal/db"
	"github.com/grubyapp/gruby/internal/handler"
	"github.com/grubyapp/gruby/internal/middleware"
	"github.com/grubyapp/gruby/internal/pkg/jwt"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "gruby",
		Short:         "gruby grocery pricing backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (json, toml or yaml)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run gruby server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := setup(configPath)
			if err != nil {
				return err
			}
			defer conn.Close()
			return runServer(cfg, conn)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, conn, err := setup(configPath)
			if err != nil {
				return err
			}
			defer conn.Close()
			logutil.GetLogger(context.Background()).Info("migrations applied")
			return nil
		},
	}

	var text string
	embedCmd := &cobra.Command{
		Use:   "embed",
		Short: "embed text with the configured providers and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			if text == "" {
				return fmt.Errorf("--text is required")
			}
			cfg, conn, err := setup(configPath)
			if err != nil {
				return err
			}
			defer conn.Close()
			generator, err := buildEmbedder(cfg, conn)
			if err != nil {
				return err
			}
			vec, err := generator.Embed(cmd.Context(), text)
			if err != nil {
				return err
			}
			preview := vec[:min(8, len(vec))]
			fmt.Fprintf(cmd.OutOrStdout(), "model=%s dimension=%d head=%v\n", generator.ModelName(), len(vec), preview)
			return nil
		},
	}
	embedCmd.Flags().StringVar(&text, "text", "", "text to embed")

	jobCmd := &cobra.Command{
		Use:   "job NAME",
		Short: "run one background job immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := setup(configPath)
			if err != nil {
				return err
			}
			defer conn.Close()
			a, err := buildApp(cfg, conn)
			if err != nil {
				return err
			}
			return a.scheduler.RunNow(cmd.Context(), args[0])
		},
	}

	var (
		subject string
		ttl     time.Duration
	)
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "mint an admin api token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			token, err := jwt.GenerateToken(subject, []byte(cfg.JWTSecret), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	tokenCmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(runCmd, migrateCmd, embedCmd, jobCmd, tokenCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("command failed", zap.Error(err))
	}
}

// setup loads config, initializes logging and returns a migrated database handle.
func setup(configPath string) (*config.Config, *sql.DB, error) {
	if configPath == "" {
		return nil, nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded",
		zap.String("config", configPath),
		zap.String("db_driver", cfg.Database.Driver),
	)
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return cfg, conn, nil
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("product_cache_store", cfg.ProductCache.Store),
		zap.Int("providers", len(cfg.Embedding.Providers)),
	)
	a, err := buildApp(cfg, conn)
	if err != nil {
		return err
	}

	deps := handler.RouterDeps{
		Embeddings:  handler.NewEmbeddingHandler(a.generator),
		Products:    handler.NewProductHandler(a.products),
		Ingredients: handler.NewIngredientHandler(a.ingredients, cfg.Search.DefaultLimit),
		JWTSecret:   []byte(cfg.JWTSecret),
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
			middleware.RateLimit(time.Duration(cfg.RateLimitMS)*time.Millisecond),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", addr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.scheduler.Start(ctx)
	defer a.scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
