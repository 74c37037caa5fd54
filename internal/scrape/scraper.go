package scrape

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/xxxsen/newsdigest/internal/config"
	"github.com/xxxsen/newsdigest/internal/model"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Source is the scraper capability: a black-box producer of structured
// article records. The pipeline never sees HTML.
type Source interface {
	FetchListing(ctx context.Context) ([]model.ArticleStub, error)
	FetchContent(ctx context.Context, url string) (string, error)
}

// SiteScraper extracts listing stubs and article bodies from a news site
// using configured CSS selectors.
type SiteScraper struct {
	client     *http.Client
	baseURL    string
	userAgent  string
	limit      int
	selectors  config.SelectorConfig
	retryDelay time.Duration
}

func NewSiteScraper(cfg config.ScrapeConfig) *SiteScraper {
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SiteScraper{
		client:     &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		userAgent:  userAgent,
		limit:      cfg.ListingLimit,
		selectors:  cfg.Selectors,
		retryDelay: 5 * time.Second,
	}
}

// FetchListing pulls the latest-news page and extracts one stub per story
// block. Stubs with no link are dropped by the caller, not here, so the
// pipeline can account for them.
func (s *SiteScraper) FetchListing(ctx context.Context) ([]model.ArticleStub, error) {
	doc, err := s.fetchDocument(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	var stubs []model.ArticleStub
	doc.Find(s.selectors.Story).EachWithBreak(func(i int, story *goquery.Selection) bool {
		if s.limit > 0 && len(stubs) >= s.limit {
			return false
		}
		stubs = append(stubs, s.extractStub(story))
		return true
	})
	return stubs, nil
}

func (s *SiteScraper) extractStub(story *goquery.Selection) model.ArticleStub {
	title := story.Find(s.selectors.Title).First()
	stub := model.ArticleStub{
		Title:   strings.TrimSpace(title.Text()),
		Excerpt: strings.TrimSpace(story.Find(s.selectors.Excerpt).First().Text()),
	}
	if link := title.Find("a").First(); link.Length() > 0 {
		stub.URL, _ = link.Attr("href")
	}
	if ts := story.Find(s.selectors.Time).First(); ts.Length() > 0 {
		if v, ok := ts.Attr("title"); ok {
			stub.PublishTime = strings.TrimSpace(v)
		} else {
			stub.PublishTime = strings.TrimSpace(ts.Text())
		}
	}
	return stub
}

// FetchContent downloads an article page and joins its body paragraphs. A
// failed request is retried once after a fixed delay, then abandoned.
func (s *SiteScraper) FetchContent(ctx context.Context, url string) (string, error) {
	doc, err := s.fetchDocument(ctx, url)
	if err != nil {
		select {
		case <-time.After(s.retryDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		doc, err = s.fetchDocument(ctx, url)
		if err != nil {
			return "", fmt.Errorf("fetch content: %w", err)
		}
	}
	body := doc.Find(s.selectors.Body).First()
	if body.Length() == 0 {
		return "", nil
	}
	var paragraphs []string
	body.Find("p").Each(func(i int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	return strings.Join(paragraphs, "\n"), nil
}

func (s *SiteScraper) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source returned %s", resp.Status)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}
