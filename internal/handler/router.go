package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/newsdigest/internal/middleware"
)

type RouterDeps struct {
	Query           *QueryHandler
	Articles        *ArticleHandler
	Health          *HealthHandler
	RateLimitWindow time.Duration
}

func RegisterRoutes(root *gin.RouterGroup, deps RouterDeps) {
	root.GET("/healthz", deps.Health.Check)

	api := root.Group("/api/v1")
	api.POST("/search", deps.Query.Search)
	api.GET("/articles", deps.Articles.List)
	api.GET("/categories", deps.Articles.Categories)

	// Completion-backed endpoints burn model tokens; keep them throttled.
	limited := api.Group("")
	limited.Use(middleware.RateLimit(deps.RateLimitWindow))
	limited.POST("/query", deps.Query.Answer)
	limited.GET("/digest/:category", deps.Articles.Digest)
	limited.POST("/summarize-url", deps.Query.SummarizeURL)
}
