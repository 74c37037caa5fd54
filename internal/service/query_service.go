package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/newsdigest/internal/model"
	appErr "github.com/xxxsen/newsdigest/internal/pkg/errors"
	"github.com/xxxsen/newsdigest/internal/repo"
)

type AnswerResult struct {
	Query    string                  `json:"query"`
	Summary  string                  `json:"summary"`
	Articles []model.RetrievalResult `json:"articles"`
}

type DigestResult struct {
	Category     string    `json:"category"`
	Summary      string    `json:"summary"`
	ArticleCount int       `json:"article_count"`
	GeneratedAt  time.Time `json:"generated_at"`
}

type URLSummaryResult struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Summary  string `json:"summary"`
}

// QueryService is the read path: vector search, retrieval-grounded answers,
// category digests and single-article summaries.
type QueryService struct {
	retriever    *Retriever
	summarizer   *Summarizer
	store        ArticleStore
	digestWindow time.Duration
	digestLimit  int
}

func NewQueryService(retriever *Retriever, summarizer *Summarizer, store ArticleStore, digestWindow time.Duration, digestLimit int) *QueryService {
	if digestWindow <= 0 {
		digestWindow = 24 * time.Hour
	}
	if digestLimit <= 0 {
		digestLimit = 6
	}
	return &QueryService{
		retriever:    retriever,
		summarizer:   summarizer,
		store:        store,
		digestWindow: digestWindow,
		digestLimit:  digestLimit,
	}
}

// Search returns nearest-neighbor matches for the query text.
func (s *QueryService) Search(ctx context.Context, query string, k int) ([]model.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", appErr.ErrInvalid)
	}
	return s.retriever.Retrieve(ctx, query, k)
}

// Answer retrieves context for the query and summarizes it. Zero hits is
// ErrNotFound, not an empty answer.
func (s *QueryService) Answer(ctx context.Context, query string, k int) (*AnswerResult, error) {
	results, err := s.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no articles matched query", appErr.ErrNotFound)
	}
	summary, err := s.summarizer.Answer(ctx, query, results)
	if err != nil {
		return nil, err
	}
	return &AnswerResult{Query: query, Summary: summary, Articles: results}, nil
}

// Digest summarizes the recent articles of one category.
func (s *QueryService) Digest(ctx context.Context, category string) (*DigestResult, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, fmt.Errorf("%w: empty category", appErr.ErrInvalid)
	}
	articles, err := s.store.List(ctx, repo.ListFilter{
		Category: category,
		Since:    s.digestWindow,
		Limit:    s.digestLimit,
	})
	if err != nil {
		return nil, err
	}
	summary, err := s.summarizer.Digest(ctx, category, articles)
	if err != nil {
		return nil, err
	}
	return &DigestResult{
		Category:     category,
		Summary:      summary,
		ArticleCount: len(articles),
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

// SummarizeURL summarizes one stored article looked up by its URL.
func (s *QueryService) SummarizeURL(ctx context.Context, url string) (*URLSummaryResult, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: empty url", appErr.ErrInvalid)
	}
	article, err := s.store.GetByURL(ctx, url)
	if err != nil {
		return nil, err
	}
	summary, err := s.summarizer.Article(ctx, article)
	if err != nil {
		return nil, err
	}
	return &URLSummaryResult{
		URL:      article.URL,
		Title:    article.Title,
		Category: article.Category,
		Summary:  summary,
	}, nil
}

// ListArticles backs the dashboard listing endpoint.
func (s *QueryService) ListArticles(ctx context.Context, filter repo.ListFilter) ([]model.Article, error) {
	return s.store.List(ctx, filter)
}
