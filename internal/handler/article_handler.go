package handler

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"

	appErr "github.com/xxxsen/newsdigest/internal/pkg/errors"
	"github.com/xxxsen/newsdigest/internal/pkg/response"
	"github.com/xxxsen/newsdigest/internal/repo"
	"github.com/xxxsen/newsdigest/internal/service"
)

type ArticleHandler struct {
	query        *service.QueryService
	labels       []string
	defaultLabel string
	markdown     goldmark.Markdown
}

func NewArticleHandler(query *service.QueryService, labels []string, defaultLabel string) *ArticleHandler {
	return &ArticleHandler{
		query:        query,
		labels:       labels,
		defaultLabel: defaultLabel,
		markdown:     goldmark.New(),
	}
}

func (h *ArticleHandler) List(c *gin.Context) {
	filter := repo.ListFilter{
		Category: c.Query("category"),
	}
	if raw := c.Query("hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			handleError(c, fmt.Errorf("%w: bad hours value %q", appErr.ErrInvalid, raw))
			return
		}
		filter.Since = time.Duration(hours) * time.Hour
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			handleError(c, fmt.Errorf("%w: bad limit value %q", appErr.ErrInvalid, raw))
			return
		}
		filter.Limit = limit
	}
	articles, err := h.query.ListArticles(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"articles": articles,
		"count":    len(articles),
	})
}

func (h *ArticleHandler) Categories(c *gin.Context) {
	categories := make([]string, 0, len(h.labels)+1)
	categories = append(categories, h.labels...)
	if !contains(categories, h.defaultLabel) {
		categories = append(categories, h.defaultLabel)
	}
	response.Success(c, gin.H{"categories": categories})
}

func (h *ArticleHandler) Digest(c *gin.Context) {
	result, err := h.query.Digest(c.Request.Context(), c.Param("category"))
	if err != nil {
		handleError(c, err)
		return
	}
	payload := gin.H{
		"category":      result.Category,
		"summary":       result.Summary,
		"article_count": result.ArticleCount,
		"generated_at":  result.GeneratedAt,
	}
	// The model emits markdown; the dashboard asks for rendered HTML.
	if c.Query("format") == "html" {
		var buf bytes.Buffer
		if err := h.markdown.Convert([]byte(result.Summary), &buf); err != nil {
			handleError(c, err)
			return
		}
		payload["summary_html"] = buf.String()
	}
	response.Success(c, payload)
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
