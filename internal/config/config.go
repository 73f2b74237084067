package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/xxxsen/common/logger"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port          int                `json:"port"`
	JWTSecret     string             `json:"jwt_secret"`
	CORSAllowlist []string           `json:"cors_allowlist"`
	RateLimitMS   int                `json:"rate_limit_ms"`
	LogConfig     logger.LogConfig   `json:"log_config"`
	Database      DatabaseConfig     `json:"database"`
	Embedding     EmbeddingConfig    `json:"embedding"`
	ProductCache  ProductCacheConfig `json:"product_cache"`
	Kroger        KrogerConfig       `json:"kroger"`
	Search        SearchConfig       `json:"search"`
	Jobs          JobsConfig         `json:"jobs"`
}

type DatabaseConfig struct {
	Driver   string `json:"driver"`
	DSN      string `json:"dsn"`
	Path     string `json:"path"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type EmbeddingConfig struct {
	Providers       []EmbeddingProviderConfig `json:"providers"`
	TaskType        string                    `json:"task_type"`
	Dimension       int                       `json:"dimension"`
	CacheTTLSeconds int                       `json:"cache_ttl_seconds"`
	CacheSize       int                       `json:"cache_size"`
	DBCache         bool                      `json:"db_cache"`
}

type EmbeddingProviderConfig struct {
	Name     string                 `json:"name"`
	Provider string                 `json:"provider"`
	Model    string                 `json:"model"`
	Data     map[string]interface{} `json:"data"`
}

type ProductCacheConfig struct {
	Store    string      `json:"store"`
	TTLHours int         `json:"ttl_hours"`
	Redis    RedisConfig `json:"redis"`
}

type RedisConfig struct {
	Addr           string `json:"addr"`
	Password       string `json:"password"`
	DB             int    `json:"db"`
	KeyPrefix      string `json:"key_prefix"`
	RetentionHours int    `json:"retention_hours"`
}

type KrogerConfig struct {
	BaseURL           string  `json:"base_url"`
	TokenURL          string  `json:"token_url"`
	ClientID          string  `json:"client_id"`
	ClientSecret      string  `json:"client_secret"`
	ClientIDEnv       string  `json:"client_id_env"`
	ClientSecretEnv   string  `json:"client_secret_env"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
	SearchLimit       int     `json:"search_limit"`
	Timeout           int     `json:"timeout"`
}

type SearchConfig struct {
	MinScore     float64 `json:"min_score"`
	DefaultLimit int     `json:"default_limit"`
}

type JobsConfig struct {
	ProductCacheCleanup   CleanupJobConfig   `json:"product_cache_cleanup"`
	EmbeddingCacheCleanup CleanupJobConfig   `json:"embedding_cache_cleanup"`
	IngredientEmbedding   EmbeddingJobConfig `json:"ingredient_embedding"`
}

type CleanupJobConfig struct {
	Spec       string `json:"spec"`
	MaxAgeDays int    `json:"max_age_days"`
}

type EmbeddingJobConfig struct {
	Spec      string `json:"spec"`
	BatchSize int    `json:"batch_size"`
}

// Load reads a json, toml or yaml config file. Non-json formats are decoded to a map
// and re-encoded so the json tags above are the only field mapping.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	var cfg Config
	if err := decode(filepath.Ext(path), raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(ext string, raw []byte, cfg *Config) error {
	var generic map[string]interface{}
	switch strings.ToLower(ext) {
	case ".json", "":
		return json.Unmarshal(raw, cfg)
	case ".toml":
		if err := toml.Unmarshal(raw, &generic); err != nil {
			return err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported config format: %s", ext)
	}
	data, err := json.Marshal(generic)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

func (c *Config) normalize() error {
	if c.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}
	if err := c.Database.normalize(); err != nil {
		return err
	}
	if len(c.Embedding.Providers) == 0 {
		return fmt.Errorf("embedding.providers is required")
	}
	for i := range c.Embedding.Providers {
		p := &c.Embedding.Providers[i]
		if strings.TrimSpace(p.Provider) == "" {
			return fmt.Errorf("embedding.providers[%d].provider is required", i)
		}
		if p.Name == "" {
			p.Name = p.Provider
		}
	}
	if c.Embedding.Dimension == 0 {
		c.Embedding.Dimension = 256
	}
	if c.Embedding.CacheTTLSeconds == 0 {
		c.Embedding.CacheTTLSeconds = 3600
	}
	if c.Embedding.CacheSize == 0 {
		c.Embedding.CacheSize = 10000
	}
	if c.ProductCache.Store == "" {
		c.ProductCache.Store = "sql"
	}
	if c.ProductCache.TTLHours == 0 {
		c.ProductCache.TTLHours = 24
	}
	switch c.ProductCache.Store {
	case "sql":
	case "redis":
		if c.ProductCache.Redis.Addr == "" {
			return fmt.Errorf("product_cache.redis.addr is required for redis store")
		}
		if c.ProductCache.Redis.KeyPrefix == "" {
			c.ProductCache.Redis.KeyPrefix = "gruby:product_cache:"
		}
	default:
		return fmt.Errorf("product_cache.store must be sql or redis")
	}
	c.Kroger.normalize()
	if c.Search.MinScore == 0 {
		c.Search.MinScore = 0.55
	}
	if c.Search.DefaultLimit == 0 {
		c.Search.DefaultLimit = 10
	}
	if c.Jobs.ProductCacheCleanup.MaxAgeDays == 0 {
		c.Jobs.ProductCacheCleanup.MaxAgeDays = 30
	}
	if c.Jobs.EmbeddingCacheCleanup.MaxAgeDays == 0 {
		c.Jobs.EmbeddingCacheCleanup.MaxAgeDays = 30
	}
	if c.Jobs.IngredientEmbedding.BatchSize == 0 {
		c.Jobs.IngredientEmbedding.BatchSize = 50
	}
	return nil
}

func (d *DatabaseConfig) normalize() error {
	if d.Driver == "" {
		d.Driver = "postgres"
	}
	switch d.Driver {
	case "postgres":
		if d.DSN == "" && d.Host == "" {
			return fmt.Errorf("database.dsn or database.host is required for postgres")
		}
		if d.Port == 0 {
			d.Port = 5432
		}
	case "sqlite":
		if d.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite")
	}
	return nil
}

func (k *KrogerConfig) normalize() {
	if k.BaseURL == "" {
		k.BaseURL = "https://api.kroger.com"
	}
	if k.TokenURL == "" {
		k.TokenURL = strings.TrimRight(k.BaseURL, "/") + "/v1/connect/oauth2/token"
	}
	if k.ClientID == "" && k.ClientIDEnv != "" {
		k.ClientID = os.Getenv(k.ClientIDEnv)
	}
	if k.ClientSecret == "" && k.ClientSecretEnv != "" {
		k.ClientSecret = os.Getenv(k.ClientSecretEnv)
	}
	if k.RequestsPerSecond == 0 {
		k.RequestsPerSecond = 5
	}
	if k.Burst == 0 {
		k.Burst = 1
	}
	if k.SearchLimit == 0 {
		k.SearchLimit = 10
	}
	if k.Timeout == 0 {
		k.Timeout = 10
	}
}
