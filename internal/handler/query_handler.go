package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	appErr "github.com/xxxsen/newsdigest/internal/pkg/errors"
	"github.com/xxxsen/newsdigest/internal/pkg/response"
	"github.com/xxxsen/newsdigest/internal/service"
)

type QueryHandler struct {
	query *service.QueryService
}

func NewQueryHandler(query *service.QueryService) *QueryHandler {
	return &QueryHandler{query: query}
}

type searchRequest struct {
	Query       string `json:"query"`
	MaxArticles int    `json:"max_articles"`
}

type summarizeURLRequest struct {
	URL string `json:"url"`
}

func (h *QueryHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, fmt.Errorf("%w: %v", appErr.ErrInvalid, err))
		return
	}
	results, err := h.query.Search(c.Request.Context(), req.Query, req.MaxArticles)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"query":    req.Query,
		"articles": results,
		"count":    len(results),
	})
}

func (h *QueryHandler) Answer(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, fmt.Errorf("%w: %v", appErr.ErrInvalid, err))
		return
	}
	result, err := h.query.Answer(c.Request.Context(), req.Query, req.MaxArticles)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *QueryHandler) SummarizeURL(c *gin.Context) {
	var req summarizeURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, fmt.Errorf("%w: %v", appErr.ErrInvalid, err))
		return
	}
	result, err := h.query.SummarizeURL(c.Request.Context(), req.URL)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
