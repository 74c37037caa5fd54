package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/newsdigest/internal/ai"
	"github.com/xxxsen/newsdigest/internal/config"
	"github.com/xxxsen/newsdigest/internal/embedcache"
	"github.com/xxxsen/newsdigest/internal/filestore"
	"github.com/xxxsen/newsdigest/internal/handler"
	"github.com/xxxsen/newsdigest/internal/index"
	"github.com/xxxsen/newsdigest/internal/job"
	"github.com/xxxsen/newsdigest/internal/middleware"
	"github.com/xxxsen/newsdigest/internal/repo"
	"github.com/xxxsen/newsdigest/internal/schedule"
	"github.com/xxxsen/newsdigest/internal/scrape"
	"github.com/xxxsen/newsdigest/internal/service"
)

func main() {
	var configPath string
	var migrationsDir string

	rootCmd := &cobra.Command{
		Use:   "newsdigest",
		Short: "news scraping, retrieval and summarization service",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run newsdigest server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			db, err := repo.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := repo.ApplyMigrations(db, migrationsDir); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, db)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	runCmd.Flags().StringVar(&migrationsDir, "migrations", "migrations", "path to migration scripts")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func buildGenerator(pc config.ProviderConfig) (ai.IGenerator, error) {
	provider, err := ai.NewProvider(pc.Provider, pc.Data)
	if err != nil {
		return nil, err
	}
	return ai.NewGenerator(provider, pc.Model, time.Duration(pc.TimeoutSecs)*time.Second), nil
}

func buildEmbedder(pc config.ProviderConfig) (ai.IEmbedder, error) {
	provider, err := ai.NewProvider(pc.Provider, pc.Data)
	if err != nil {
		return nil, err
	}
	return ai.NewEmbedder(provider, pc.Model, time.Duration(pc.TimeoutSecs)*time.Second), nil
}

func runServer(cfg *config.Config, db *sqlx.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("source", cfg.Scrape.BaseURL),
		zap.String("artifact_store", cfg.Index.Store.Type),
	)

	articleRepo := repo.NewArticleRepo(db)
	embedCacheRepo := repo.NewEmbeddingCacheRepo(db)

	generator, err := buildGenerator(cfg.AI.Completion)
	if err != nil {
		return fmt.Errorf("init completion provider: %w", err)
	}
	if cfg.AI.CompletionBackup.Provider != "" {
		backup, err := buildGenerator(cfg.AI.CompletionBackup)
		if err != nil {
			return fmt.Errorf("init completion backup provider: %w", err)
		}
		generator = ai.NewGroupGenerator([]ai.GeneratorEntry{
			{Name: cfg.AI.Completion.Provider, Generator: generator},
			{Name: cfg.AI.CompletionBackup.Provider, Generator: backup},
		})
	}

	embedder, err := buildEmbedder(cfg.AI.Embedding)
	if err != nil {
		return fmt.Errorf("init embedding provider: %w", err)
	}
	if cfg.AI.EmbeddingBackup.Provider != "" {
		backup, err := buildEmbedder(cfg.AI.EmbeddingBackup)
		if err != nil {
			return fmt.Errorf("init embedding backup provider: %w", err)
		}
		embedder = ai.NewGroupEmbedder([]ai.EmbedderEntry{
			{Name: cfg.AI.Embedding.Provider, Embedder: embedder},
			{Name: cfg.AI.EmbeddingBackup.Provider, Embedder: backup},
		})
	}
	embedder = embedcache.WrapDBCacheToEmbedder(embedder, embedCacheRepo)
	embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.AI.EmbedCacheSize,
		time.Duration(cfg.AI.EmbedCacheTTLHours)*time.Hour)

	artifacts, err := filestore.New(cfg.Index.Store)
	if err != nil {
		return fmt.Errorf("init artifact store: %w", err)
	}
	idx := index.NewManager(articleRepo, embedder, artifacts, cfg.Index.BlobKey, cfg.Index.MetaKey)

	classifier, err := ai.NewZeroShotClassifier(ai.ZeroShotConfig{
		Endpoint: cfg.Classify.Endpoint,
		Token:    cfg.Classify.Token,
		Labels:   cfg.Classify.Labels,
		Timeout:  time.Duration(cfg.Classify.TimeoutSecs) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("init classifier: %w", err)
	}

	scraper := scrape.NewSiteScraper(cfg.Scrape)
	ingest := service.NewIngestService(scraper, articleRepo, classifier, idx, service.IngestConfig{
		DefaultLabel: cfg.Classify.DefaultLabel,
		Threshold:    cfg.Classify.Threshold,
		Retention:    time.Duration(cfg.RetentionHours) * time.Hour,
		MinDelay:     time.Duration(cfg.Scrape.MinDelayMS) * time.Millisecond,
		MaxDelay:     time.Duration(cfg.Scrape.MaxDelayMS) * time.Millisecond,
	})

	retriever := service.NewRetriever(idx, cfg.Query.DefaultK, cfg.Query.MaxK)
	summarizer := service.NewSummarizer(generator, service.SummarizerConfig{
		ExcerptCap:     cfg.Query.ExcerptCap,
		DigestMaxItems: cfg.Query.DigestMaxItems,
	})
	queryService := service.NewQueryService(retriever, summarizer, articleRepo,
		time.Duration(cfg.Query.DigestWindowHours)*time.Hour, cfg.Query.DigestMaxItems)

	deps := handler.RouterDeps{
		Query:           handler.NewQueryHandler(queryService),
		Articles:        handler.NewArticleHandler(queryService, cfg.Classify.Labels, cfg.Classify.DefaultLabel),
		Health:          handler.NewHealthHandler(db, idx),
		RateLimitWindow: time.Duration(cfg.Query.RateLimitSecs) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Restore the index from artifacts without blocking startup; the API
	// answers ErrIndexUnavailable on search until the first publish.
	go func() {
		if err := idx.Load(ctx); err != nil {
			logutil.GetLogger(ctx).Warn("index not available yet", zap.Error(err))
		}
	}()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewIngestJob(ingest), cfg.Scrape.Schedule); err != nil {
		return fmt.Errorf("schedule ingest: %w", err)
	}
	if err := scheduler.AddJob(job.NewCacheSweepJob(embedCacheRepo, 7*24*time.Hour), "@every 6h"); err != nil {
		return fmt.Errorf("schedule cache sweep: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(ctx).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
