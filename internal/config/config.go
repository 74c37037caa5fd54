package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port      int              `json:"port"`
	LogConfig logger.LogConfig `json:"log_config"`
	Database  DatabaseConfig   `json:"database"`
	Scrape    ScrapeConfig     `json:"scrape"`
	Classify  ClassifyConfig   `json:"classify"`
	AI        AIConfig         `json:"ai"`
	Index     IndexConfig      `json:"index"`
	Query     QueryConfig      `json:"query"`
	// RetentionHours bounds how long an ingested article survives before the
	// sweep removes it. Retention is the only eviction mechanism.
	RetentionHours int `json:"retention_hours"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type ScrapeConfig struct {
	BaseURL      string         `json:"base_url"`
	UserAgent    string         `json:"user_agent"`
	Schedule     string         `json:"schedule"`
	ListingLimit int            `json:"listing_limit"`
	MinDelayMS   int            `json:"min_delay_ms"`
	MaxDelayMS   int            `json:"max_delay_ms"`
	TimeoutSecs  int            `json:"timeout_secs"`
	Selectors    SelectorConfig `json:"selectors"`
}

// SelectorConfig keeps the site-specific CSS selectors out of code so the
// scraper stays a black-box source of structured records.
type SelectorConfig struct {
	Story   string `json:"story"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	Time    string `json:"time"`
	Body    string `json:"body"`
}

type ClassifyConfig struct {
	Endpoint     string   `json:"endpoint"`
	Token        string   `json:"token"`
	Labels       []string `json:"labels"`
	Threshold    float64  `json:"threshold"`
	DefaultLabel string   `json:"default_label"`
	TimeoutSecs  int      `json:"timeout_secs"`
}

type AIConfig struct {
	Completion ProviderConfig `json:"completion"`
	Embedding  ProviderConfig `json:"embedding"`
	// Optional backup providers, tried when the primary fails.
	CompletionBackup ProviderConfig `json:"completion_backup"`
	EmbeddingBackup  ProviderConfig `json:"embedding_backup"`
	// EmbedCacheSize/TTL control the in-process LRU in front of the
	// pgvector-backed embedding cache.
	EmbedCacheSize     int `json:"embed_cache_size"`
	EmbedCacheTTLHours int `json:"embed_cache_ttl_hours"`
}

type ProviderConfig struct {
	Provider    string      `json:"provider"`
	Model       string      `json:"model"`
	TimeoutSecs int         `json:"timeout_secs"`
	Data        interface{} `json:"data"`
}

type IndexConfig struct {
	Store   StoreConfig `json:"store"`
	BlobKey string      `json:"blob_key"`
	MetaKey string      `json:"meta_key"`
}

type StoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type QueryConfig struct {
	DefaultK          int `json:"default_k"`
	MaxK              int `json:"max_k"`
	DigestMaxItems    int `json:"digest_max_items"`
	ExcerptCap        int `json:"excerpt_cap"`
	DigestWindowHours int `json:"digest_window_hours"`
	RateLimitSecs     int `json:"rate_limit_secs"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" {
		return nil, fmt.Errorf("database.host and database.dbname are required")
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Scrape.BaseURL == "" {
		return nil, fmt.Errorf("scrape.base_url is required")
	}
	if cfg.Scrape.Schedule == "" {
		cfg.Scrape.Schedule = "@every 2h"
	}
	if cfg.Scrape.ListingLimit == 0 {
		cfg.Scrape.ListingLimit = 30
	}
	if cfg.Scrape.MinDelayMS == 0 {
		cfg.Scrape.MinDelayMS = 2000
	}
	if cfg.Scrape.MaxDelayMS < cfg.Scrape.MinDelayMS {
		cfg.Scrape.MaxDelayMS = cfg.Scrape.MinDelayMS + 2000
	}
	if cfg.Scrape.TimeoutSecs == 0 {
		cfg.Scrape.TimeoutSecs = 10
	}
	if cfg.Classify.Threshold == 0 {
		cfg.Classify.Threshold = 0.4
	}
	if cfg.Classify.DefaultLabel == "" {
		cfg.Classify.DefaultLabel = "Others"
	}
	if cfg.Classify.TimeoutSecs == 0 {
		cfg.Classify.TimeoutSecs = 10
	}
	if cfg.AI.Completion.Provider == "" || cfg.AI.Embedding.Provider == "" {
		return nil, fmt.Errorf("ai.completion.provider and ai.embedding.provider are required")
	}
	if cfg.AI.Completion.TimeoutSecs == 0 {
		cfg.AI.Completion.TimeoutSecs = 30
	}
	if cfg.AI.Embedding.TimeoutSecs == 0 {
		cfg.AI.Embedding.TimeoutSecs = 15
	}
	if cfg.AI.CompletionBackup.Provider != "" && cfg.AI.CompletionBackup.TimeoutSecs == 0 {
		cfg.AI.CompletionBackup.TimeoutSecs = cfg.AI.Completion.TimeoutSecs
	}
	if cfg.AI.EmbeddingBackup.Provider != "" && cfg.AI.EmbeddingBackup.TimeoutSecs == 0 {
		cfg.AI.EmbeddingBackup.TimeoutSecs = cfg.AI.Embedding.TimeoutSecs
	}
	if cfg.AI.EmbeddingBackup.Provider != "" && cfg.AI.EmbeddingBackup.Model != cfg.AI.Embedding.Model {
		// Vectors from different models do not share a space; a backup may
		// only be another route to the same model.
		return nil, fmt.Errorf("ai.embedding_backup.model must match ai.embedding.model")
	}
	if cfg.AI.EmbedCacheSize == 0 {
		cfg.AI.EmbedCacheSize = 10000
	}
	if cfg.AI.EmbedCacheTTLHours == 0 {
		cfg.AI.EmbedCacheTTLHours = 2
	}
	if cfg.Index.Store.Type == "" {
		cfg.Index.Store.Type = "local"
	}
	if cfg.Index.BlobKey == "" {
		cfg.Index.BlobKey = "articles.vec"
	}
	if cfg.Index.MetaKey == "" {
		cfg.Index.MetaKey = "articles.meta.json"
	}
	if cfg.Query.DefaultK == 0 {
		cfg.Query.DefaultK = 3
	}
	if cfg.Query.MaxK == 0 {
		cfg.Query.MaxK = 10
	}
	if cfg.Query.DigestMaxItems == 0 {
		cfg.Query.DigestMaxItems = 6
	}
	if cfg.Query.ExcerptCap == 0 {
		cfg.Query.ExcerptCap = 150
	}
	if cfg.Query.DigestWindowHours == 0 {
		cfg.Query.DigestWindowHours = 24
	}
	if cfg.RetentionHours == 0 {
		cfg.RetentionHours = 24
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	return &cfg, nil
}
