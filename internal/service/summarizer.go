package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/newsdigest/internal/ai"
	"github.com/xxxsen/newsdigest/internal/model"
	appErr "github.com/xxxsen/newsdigest/internal/pkg/errors"
)

// emptyDigestSummary is returned for an empty article set without touching
// the completion capability.
const emptyDigestSummary = "No articles to summarize."

const digestPromptTemplate = `You are a professional news analyst. Create an insightful, engaging summary of these %s articles.

Focus on:
- Key trends and emerging patterns
- Most significant developments
- Impact and implications
- 3-5 concise bullet points
- Professional, informative tone

Articles:
%s

Provide a strategic overview highlighting the most important insights and trends.`

const queryPromptTemplate = `You are a news summarization expert. Your task is to generate a clear and concise summary that answers the user's query, using only the most relevant and accurate information from the provided articles.

Guidelines:
- Only use information from the relevant articles
- Do not include unrelated content or mention anything like "article 1" or "the article above"
- If the information is limited, explain that clearly
- Be objective, factual, and long (4-5 paragraphs)
- Maintain a journalistic tone
- Just give summary according to the query, do not add any additional information like "As an AI language model" or "Based on the articles provided"

Query: %s

Articles:
%s

Please provide a summary that answers the query based on these articles.`

const articlePromptTemplate = `You are an expert article summarizer. Create a concise, informative summary of the provided article.

Guidelines:
- Keep it 2-3 paragraphs (150-250 words)
- Focus on the main points and key information
- Use clear, journalistic style
- Include important facts, dates, and figures
- Don't add information not present in the article

Please summarize this article:

Title: %s

Excerpt: %s

Full Article:
%s`

type SummarizerConfig struct {
	ExcerptCap     int
	DigestMaxItems int
	CacheSize      int
	CacheTTL       time.Duration
}

// Summarizer renders prompts and calls the completion capability. Results
// are cached in an expirable LRU keyed by feature plus content hash, so a
// repeated digest or query inside the TTL costs nothing.
type Summarizer struct {
	generator ai.IGenerator
	cfg       SummarizerConfig
	cache     *expirable.LRU[string, string]
}

func NewSummarizer(generator ai.IGenerator, cfg SummarizerConfig) *Summarizer {
	if cfg.ExcerptCap <= 0 {
		cfg.ExcerptCap = 150
	}
	if cfg.DigestMaxItems <= 0 {
		cfg.DigestMaxItems = 6
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 128
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &Summarizer{
		generator: generator,
		cfg:       cfg,
		cache:     expirable.NewLRU[string, string](cfg.CacheSize, nil, cfg.CacheTTL),
	}
}

// Digest summarizes a category batch with the news-analyst prompt.
func (s *Summarizer) Digest(ctx context.Context, category string, articles []model.Article) (string, error) {
	if len(articles) == 0 {
		return emptyDigestSummary, nil
	}
	items := articles
	if len(items) > s.cfg.DigestMaxItems {
		items = items[:s.cfg.DigestMaxItems]
	}
	lines := make([]string, 0, len(items))
	for _, a := range items {
		lines = append(lines, fmt.Sprintf("• %s (%s): %s...",
			a.Title, a.PublishTime.Format("2006-01-02 15:04"), truncate(a.Excerpt, s.cfg.ExcerptCap)))
	}
	prompt := fmt.Sprintf(digestPromptTemplate, category, strings.Join(lines, "\n"))
	return s.complete(ctx, "digest", prompt)
}

// Answer summarizes retrieval hits grounded on the user's query.
func (s *Summarizer) Answer(ctx context.Context, query string, results []model.RetrievalResult) (string, error) {
	blocks := make([]string, 0, len(results))
	for i, r := range results {
		blocks = append(blocks, fmt.Sprintf("Article %d: %s\n%s", i+1, r.Article.Title, r.Article.Excerpt))
	}
	prompt := fmt.Sprintf(queryPromptTemplate, query, strings.Join(blocks, "\n\n"))
	return s.complete(ctx, "query", prompt)
}

// Article summarizes one full article; the body must have been fetched.
func (s *Summarizer) Article(ctx context.Context, article *model.Article) (string, error) {
	if !article.HasContent() {
		return "", fmt.Errorf("%w: article body was never fetched: %s", appErr.ErrContentUnavailable, article.URL)
	}
	prompt := fmt.Sprintf(articlePromptTemplate, article.Title, article.Excerpt, article.Content)
	return s.complete(ctx, "article", prompt)
}

func (s *Summarizer) complete(ctx context.Context, feature string, prompt string) (string, error) {
	key := cacheKey(feature, prompt)
	if cached, ok := s.cache.Get(key); ok {
		logutil.GetLogger(ctx).Debug("summary cache hit", zap.String("feature", feature))
		return cached, nil
	}
	summary, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", appErr.ErrCompletionFailed, err)
	}
	s.cache.Add(key, summary)
	return summary, nil
}

func cacheKey(feature string, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return feature + ":" + hex.EncodeToString(sum[:])
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
