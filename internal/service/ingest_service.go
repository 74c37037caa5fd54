package service

import (
	"context"
	"math/rand"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/newsdigest/internal/ai"
	"github.com/xxxsen/newsdigest/internal/model"
	appErr "github.com/xxxsen/newsdigest/internal/pkg/errors"
	"github.com/xxxsen/newsdigest/internal/scrape"
)

// Rebuilder is the index surface the pipeline triggers after each batch.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
}

type IngestConfig struct {
	DefaultLabel string
	Threshold    float64
	Retention    time.Duration
	MinDelay     time.Duration
	MaxDelay     time.Duration
}

// IngestService runs one full ingestion cycle: listing fetch, per-article
// dedup/fetch/classify/persist, retention sweep, index rebuild. It is the
// sole writer to the article store.
type IngestService struct {
	source     scrape.Source
	store      ArticleStore
	classifier ai.IClassifier
	index      Rebuilder
	cfg        IngestConfig
}

func NewIngestService(source scrape.Source, store ArticleStore, classifier ai.IClassifier, index Rebuilder, cfg IngestConfig) *IngestService {
	if cfg.DefaultLabel == "" {
		cfg.DefaultLabel = "Others"
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = 0.4
	}
	if cfg.Retention == 0 {
		cfg.Retention = 24 * time.Hour
	}
	return &IngestService{
		source:     source,
		store:      store,
		classifier: classifier,
		index:      index,
		cfg:        cfg,
	}
}

// RunCycle processes one batch. Per-item failures are logged and skipped;
// only a listing failure or a final rebuild failure fails the cycle.
func (s *IngestService) RunCycle(ctx context.Context) error {
	logger := logutil.GetLogger(ctx)

	stubs, err := s.source.FetchListing(ctx)
	if err != nil {
		return err
	}
	inserted := 0
	for _, stub := range stubs {
		if stub.URL == "" {
			continue
		}
		if err := s.ingestOne(ctx, stub); err != nil {
			if appErr.IsConflict(err) {
				logger.Debug("article already stored", zap.String("url", stub.URL))
				continue
			}
			logger.Warn("article skipped", zap.String("url", stub.URL), zap.Error(err))
			continue
		}
		inserted++
	}

	deleted, err := s.store.DeleteOlderThan(ctx, s.cfg.Retention)
	if err != nil {
		logger.Warn("retention sweep failed", zap.Error(err))
	} else if deleted > 0 {
		logger.Info("retention sweep", zap.Int64("deleted", deleted))
	}

	logger.Info("ingest batch done", zap.Int("listed", len(stubs)), zap.Int("inserted", inserted))
	return s.index.Rebuild(ctx)
}

func (s *IngestService) ingestOne(ctx context.Context, stub model.ArticleStub) error {
	logger := logutil.GetLogger(ctx)

	// Exists fails safe to true on store errors: skipping is always cheaper
	// than a duplicate-insert storm.
	exists, err := s.store.Exists(ctx, stub.URL)
	if err != nil {
		logger.Warn("exists check failed, skipping url", zap.String("url", stub.URL), zap.Error(err))
	}
	if exists {
		return appErr.ErrConflict
	}

	if err := s.politenessDelay(ctx); err != nil {
		return err
	}

	content, err := s.source.FetchContent(ctx, stub.URL)
	if err != nil {
		// The stub is still worth keeping: the body can stay unfetched.
		logger.Warn("content fetch failed", zap.String("url", stub.URL), zap.Error(err))
		content = ""
	}

	now := time.Now().UTC()
	article := &model.Article{
		Title:       stub.Title,
		Excerpt:     stub.Excerpt,
		Content:     content,
		URL:         stub.URL,
		Category:    s.classify(ctx, stub),
		PublishTime: parsePublishTime(stub.PublishTime),
		ScrapedAt:   now,
	}
	if err := s.store.Insert(ctx, article); err != nil {
		return err
	}
	logger.Info("article ingested",
		zap.String("url", article.URL),
		zap.String("category", article.Category))
	return nil
}

// classify degrades to the default label on error or low confidence;
// classification never fails an item.
func (s *IngestService) classify(ctx context.Context, stub model.ArticleStub) string {
	logger := logutil.GetLogger(ctx)
	label, confidence, err := s.classifier.Classify(ctx, stub.Title+" "+stub.Excerpt)
	if err != nil {
		logger.Warn("classification failed", zap.String("url", stub.URL), zap.Error(err))
		return s.cfg.DefaultLabel
	}
	if confidence < s.cfg.Threshold {
		logger.Debug("classification below threshold",
			zap.String("url", stub.URL),
			zap.String("label", label),
			zap.Float64("confidence", confidence))
		return s.cfg.DefaultLabel
	}
	return label
}

// politenessDelay pauses a randomized, bounded interval between article
// fetches so the source never sees a burst.
func (s *IngestService) politenessDelay(ctx context.Context) error {
	if s.cfg.MaxDelay <= 0 {
		return nil
	}
	delay := s.cfg.MinDelay
	if spread := s.cfg.MaxDelay - s.cfg.MinDelay; spread > 0 {
		delay += time.Duration(rand.Int63n(int64(spread)))
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// publishTimeLayouts covers the formats the source has been seen to emit.
var publishTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"January 2, 2006 03:04pm",
	"Jan 2, 2006 03:04pm",
}

// parsePublishTime returns the zero time when the raw value is missing or
// unparseable; the store then falls back to the scrape timestamp.
func parsePublishTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range publishTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
