package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/newsdigest/internal/model"
	appErr "github.com/xxxsen/newsdigest/internal/pkg/errors"
)

type stubSearcher struct {
	results []model.RetrievalResult
	err     error
	lastK   int
}

func (s *stubSearcher) Search(ctx context.Context, query string, k int) ([]model.RetrievalResult, error) {
	s.lastK = k
	return s.results, s.err
}

func hit(title string, distance float32) model.RetrievalResult {
	return model.RetrievalResult{
		Article:  model.ArticleSnapshot{Title: title, Excerpt: "about " + title},
		Distance: distance,
		Score:    1 / (1 + distance),
	}
}

func newTestQueryService(searcher *stubSearcher, gen *stubGenerator, store *stubStore) *QueryService {
	retriever := NewRetriever(searcher, 3, 10)
	summarizer := NewSummarizer(gen, SummarizerConfig{})
	return NewQueryService(retriever, summarizer, store, 24*time.Hour, 6)
}

func TestQueryServiceSearch_BoundsK(t *testing.T) {
	searcher := &stubSearcher{results: []model.RetrievalResult{hit("a", 0.1)}}
	svc := newTestQueryService(searcher, &stubGenerator{}, &stubStore{})

	_, err := svc.Search(context.Background(), "floods", 0)
	require.NoError(t, err)
	require.Equal(t, 3, searcher.lastK)

	_, err = svc.Search(context.Background(), "floods", 50)
	require.NoError(t, err)
	require.Equal(t, 10, searcher.lastK)
}

func TestQueryServiceSearch_RejectsEmptyQuery(t *testing.T) {
	svc := newTestQueryService(&stubSearcher{}, &stubGenerator{}, &stubStore{})

	_, err := svc.Search(context.Background(), "   ", 3)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestQueryServiceSearch_PropagatesIndexUnavailable(t *testing.T) {
	searcher := &stubSearcher{err: appErr.ErrIndexUnavailable}
	svc := newTestQueryService(searcher, &stubGenerator{}, &stubStore{})

	_, err := svc.Search(context.Background(), "floods", 3)
	require.ErrorIs(t, err, appErr.ErrIndexUnavailable)
}

func TestQueryServiceAnswer_ZeroHitsIsNotFound(t *testing.T) {
	gen := &stubGenerator{reply: "should not run"}
	svc := newTestQueryService(&stubSearcher{}, gen, &stubStore{})

	_, err := svc.Answer(context.Background(), "obscure topic", 3)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.Equal(t, 0, gen.calls)
}

func TestQueryServiceAnswer_ReturnsSummaryWithSources(t *testing.T) {
	searcher := &stubSearcher{results: []model.RetrievalResult{hit("flood update", 0.2), hit("relief effort", 0.5)}}
	gen := &stubGenerator{reply: "the rivers are rising"}
	svc := newTestQueryService(searcher, gen, &stubStore{})

	result, err := svc.Answer(context.Background(), "what about the floods", 2)
	require.NoError(t, err)
	require.Equal(t, "what about the floods", result.Query)
	require.Equal(t, "the rivers are rising", result.Summary)
	require.Len(t, result.Articles, 2)
	require.Equal(t, "flood update", result.Articles[0].Article.Title)
}

func TestQueryServiceDigest_EmptyCategoryWindow(t *testing.T) {
	gen := &stubGenerator{reply: "should not run"}
	svc := newTestQueryService(&stubSearcher{}, gen, &stubStore{})

	result, err := svc.Digest(context.Background(), "Sports")
	require.NoError(t, err)
	require.Equal(t, "No articles to summarize.", result.Summary)
	require.Equal(t, 0, result.ArticleCount)
	require.Equal(t, 0, gen.calls)
}

func TestQueryServiceDigest_SummarizesStoredArticles(t *testing.T) {
	store := &stubStore{inserted: []*model.Article{
		{Title: "match report", Excerpt: "six wickets", Category: "Sports", PublishTime: time.Now()},
	}}
	gen := &stubGenerator{reply: "sports wrap"}
	svc := newTestQueryService(&stubSearcher{}, gen, store)

	result, err := svc.Digest(context.Background(), "Sports")
	require.NoError(t, err)
	require.Equal(t, "Sports", result.Category)
	require.Equal(t, "sports wrap", result.Summary)
	require.Equal(t, 1, result.ArticleCount)
	require.False(t, result.GeneratedAt.IsZero())
}

func TestQueryServiceDigest_RejectsEmptyCategory(t *testing.T) {
	svc := newTestQueryService(&stubSearcher{}, &stubGenerator{}, &stubStore{})

	_, err := svc.Digest(context.Background(), " ")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestQueryServiceSummarizeURL(t *testing.T) {
	store := &stubStore{inserted: []*model.Article{
		{Title: "match report", URL: "https://n/a", Category: "Sports", Content: "full text"},
	}}
	gen := &stubGenerator{reply: "short version"}
	svc := newTestQueryService(&stubSearcher{}, gen, store)

	result, err := svc.SummarizeURL(context.Background(), "https://n/a")
	require.NoError(t, err)
	require.Equal(t, "https://n/a", result.URL)
	require.Equal(t, "match report", result.Title)
	require.Equal(t, "Sports", result.Category)
	require.Equal(t, "short version", result.Summary)

	_, err = svc.SummarizeURL(context.Background(), "")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestQueryServiceSummarizeURL_ContentUnavailable(t *testing.T) {
	store := &stubStore{inserted: []*model.Article{
		{Title: "stub only", URL: "https://n/b", Category: "Others"},
	}}
	svc := newTestQueryService(&stubSearcher{}, &stubGenerator{}, store)

	_, err := svc.SummarizeURL(context.Background(), "https://n/b")
	require.ErrorIs(t, err, appErr.ErrContentUnavailable)
}

func TestRetriever_DefaultsApplied(t *testing.T) {
	searcher := &stubSearcher{}
	r := NewRetriever(searcher, 0, 0)

	_, err := r.Retrieve(context.Background(), "q", -1)
	require.NoError(t, err)
	require.Equal(t, 3, searcher.lastK)

	_, err = r.Retrieve(context.Background(), "q", 99)
	require.NoError(t, err)
	require.Equal(t, 10, searcher.lastK)
}
