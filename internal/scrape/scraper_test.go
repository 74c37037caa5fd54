package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/newsdigest/internal/config"
)

const listingHTML = `<html><body>
<div class="story">
  <h2 class="story__title"><a href="https://news.example/one">First headline</a></h2>
  <p class="story__excerpt">First excerpt.</p>
  <span class="timestamp" title="2026-08-27T09:00:00Z">3 hours ago</span>
</div>
<div class="story">
  <h2 class="story__title"><a href="https://news.example/two">Second headline</a></h2>
  <p class="story__excerpt">Second excerpt.</p>
  <span class="timestamp">2 hours ago</span>
</div>
<div class="story">
  <h2 class="story__title">Linkless headline</h2>
</div>
</body></html>`

const articleHTML = `<html><body>
<div class="story__content">
  <p>First paragraph.</p>
  <p>  </p>
  <p>Second paragraph.</p>
</div>
</body></html>`

func testSelectors() config.SelectorConfig {
	return config.SelectorConfig{
		Story:   "div.story",
		Title:   "h2.story__title",
		Excerpt: "p.story__excerpt",
		Time:    "span.timestamp",
		Body:    "div.story__content",
	}
}

func newTestScraper(baseURL string, limit int) *SiteScraper {
	s := NewSiteScraper(config.ScrapeConfig{
		BaseURL:      baseURL,
		ListingLimit: limit,
		TimeoutSecs:  2,
		Selectors:    testSelectors(),
	})
	s.retryDelay = 10 * time.Millisecond
	return s
}

func TestFetchListing_ExtractsStubs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(listingHTML))
	}))
	defer srv.Close()

	stubs, err := newTestScraper(srv.URL, 30).FetchListing(context.Background())
	require.NoError(t, err)
	require.Len(t, stubs, 3)

	require.Equal(t, "First headline", stubs[0].Title)
	require.Equal(t, "First excerpt.", stubs[0].Excerpt)
	require.Equal(t, "https://news.example/one", stubs[0].URL)
	// The title attribute wins over the human-readable text.
	require.Equal(t, "2026-08-27T09:00:00Z", stubs[0].PublishTime)

	require.Equal(t, "2 hours ago", stubs[1].PublishTime)

	// Linkless stories still come through; the pipeline drops them.
	require.Equal(t, "Linkless headline", stubs[2].Title)
	require.Empty(t, stubs[2].URL)
}

func TestFetchListing_HonorsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingHTML))
	}))
	defer srv.Close()

	stubs, err := newTestScraper(srv.URL, 2).FetchListing(context.Background())
	require.NoError(t, err)
	require.Len(t, stubs, 2)
}

func TestFetchListing_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestScraper(srv.URL, 30).FetchListing(context.Background())
	require.Error(t, err)
}

func TestFetchContent_JoinsParagraphs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	content, err := newTestScraper(srv.URL, 30).FetchContent(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "First paragraph.\nSecond paragraph.", content)
}

func TestFetchContent_MissingBodySelector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>loose text</p></body></html>"))
	}))
	defer srv.Close()

	content, err := newTestScraper(srv.URL, 30).FetchContent(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Empty(t, content)
}

func TestFetchContent_RetriesOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	content, err := newTestScraper(srv.URL, 30).FetchContent(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "First paragraph.\nSecond paragraph.", content)
	require.Equal(t, int32(2), hits.Load())
}

func TestFetchContent_GivesUpAfterRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestScraper(srv.URL, 30).FetchContent(context.Background(), srv.URL)
	require.Error(t, err)
	require.Equal(t, int32(2), hits.Load())
}
