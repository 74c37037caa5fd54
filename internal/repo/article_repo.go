package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/xxxsen/newsdigest/internal/model"
	"github.com/xxxsen/newsdigest/internal/pkg/dbutil"
	appErr "github.com/xxxsen/newsdigest/internal/pkg/errors"
)

type ArticleRepo struct {
	db *sqlx.DB
}

func NewArticleRepo(db *sqlx.DB) *ArticleRepo {
	return &ArticleRepo{db: db}
}

// ListFilter narrows List. Zero values mean "no constraint" except Limit,
// which callers should always set.
type ListFilter struct {
	Category string
	Since    time.Duration
	Limit    int
}

// Exists fails safe: when the store is unreachable it reports true together
// with the error, so the ingestion path skips the URL instead of risking a
// duplicate-insert storm.
func (r *ArticleRepo) Exists(ctx context.Context, url string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM articles WHERE url = $1`, url); err != nil {
		return true, wrapStoreErr(err)
	}
	return count > 0, nil
}

// Insert persists a new article. A URL uniqueness violation maps to
// ErrConflict. An unset publish time falls back to the scrape time.
func (r *ArticleRepo) Insert(ctx context.Context, article *model.Article) error {
	if article.ScrapedAt.IsZero() {
		article.ScrapedAt = time.Now().UTC()
	}
	if article.PublishTime.IsZero() {
		article.PublishTime = article.ScrapedAt
	}
	const query = `
		INSERT INTO articles (title, excerpt, content, url, category, publish_time, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		article.Title,
		article.Excerpt,
		article.Content,
		article.URL,
		article.Category,
		article.PublishTime.UTC(),
		article.ScrapedAt.UTC(),
	).Scan(&article.ID)
	if err != nil {
		if dbutil.IsUniqueViolation(err) {
			return appErr.ErrConflict
		}
		return wrapStoreErr(err)
	}
	return nil
}

func (r *ArticleRepo) GetByURL(ctx context.Context, url string) (*model.Article, error) {
	const query = `
		SELECT id, title, excerpt, content, url, category, publish_time, scraped_at
		FROM articles WHERE url = $1
	`
	var article model.Article
	if err := r.db.QueryRowxContext(ctx, query, url).Scan(
		&article.ID, &article.Title, &article.Excerpt, &article.Content,
		&article.URL, &article.Category, &article.PublishTime, &article.ScrapedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, wrapStoreErr(err)
	}
	return &article, nil
}

// List returns articles matching the filter, newest scrape first.
func (r *ArticleRepo) List(ctx context.Context, filter ListFilter) ([]model.Article, error) {
	where := map[string]interface{}{
		"_orderby": "scraped_at desc",
	}
	if filter.Category != "" {
		where["category"] = filter.Category
	}
	if filter.Since > 0 {
		where["scraped_at >"] = time.Now().UTC().Add(-filter.Since)
	}
	if filter.Limit > 0 {
		where["_limit"] = []uint{uint(filter.Limit)}
	}
	cols := []string{"id", "title", "excerpt", "content", "url", "category", "publish_time", "scraped_at"}
	query, args, err := builder.BuildSelect("articles", where, cols)
	if err != nil {
		return nil, err
	}
	query, args = dbutil.Finalize(query, args)
	return r.scanArticles(ctx, query, args)
}

// ListAll feeds index rebuilds. No ordering guarantee is needed there.
func (r *ArticleRepo) ListAll(ctx context.Context) ([]model.Article, error) {
	const query = `
		SELECT id, title, excerpt, content, url, category, publish_time, scraped_at
		FROM articles
	`
	return r.scanArticles(ctx, query, nil)
}

// DeleteOlderThan removes articles scraped before now-window and returns the
// number deleted.
func (r *ArticleRepo) DeleteOlderThan(ctx context.Context, window time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-window)
	res, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE scraped_at < $1`, cutoff)
	if err != nil {
		return 0, wrapStoreErr(err)
	}
	return res.RowsAffected()
}

func (r *ArticleRepo) scanArticles(ctx context.Context, query string, args []interface{}) ([]model.Article, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer rows.Close()
	var articles []model.Article
	for rows.Next() {
		var article model.Article
		if err := rows.Scan(
			&article.ID, &article.Title, &article.Excerpt, &article.Content,
			&article.URL, &article.Category, &article.PublishTime, &article.ScrapedAt,
		); err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", appErr.ErrStoreUnavailable, err)
}
