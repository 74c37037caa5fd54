package service

import (
	"context"
	"time"

	"github.com/xxxsen/newsdigest/internal/model"
	"github.com/xxxsen/newsdigest/internal/repo"
)

// ArticleStore is the persistence surface the services depend on,
// implemented by repo.ArticleRepo in production.
type ArticleStore interface {
	Exists(ctx context.Context, url string) (bool, error)
	Insert(ctx context.Context, article *model.Article) error
	GetByURL(ctx context.Context, url string) (*model.Article, error)
	List(ctx context.Context, filter repo.ListFilter) ([]model.Article, error)
	DeleteOlderThan(ctx context.Context, window time.Duration) (int64, error)
}
