package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/newsdigest/internal/repo"
)

// CacheSweepJob drops embedding cache rows old enough that their articles
// have long been swept; the cache is repopulated on demand.
type CacheSweepJob struct {
	cache  *repo.EmbeddingCacheRepo
	maxAge time.Duration
}

func NewCacheSweepJob(cache *repo.EmbeddingCacheRepo, maxAge time.Duration) *CacheSweepJob {
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	return &CacheSweepJob{cache: cache, maxAge: maxAge}
}

func (j *CacheSweepJob) Name() string {
	return "embedding_cache_sweep"
}

func (j *CacheSweepJob) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-j.maxAge).Unix()
	deleted, err := j.cache.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		logutil.GetLogger(ctx).Info("embedding cache swept", zap.Int64("deleted", deleted))
	}
	return nil
}
