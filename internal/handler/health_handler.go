package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/xxxsen/newsdigest/internal/index"
)

type HealthHandler struct {
	db  *sqlx.DB
	idx *index.Manager
}

func NewHealthHandler(db *sqlx.DB, idx *index.Manager) *HealthHandler {
	return &HealthHandler{db: db, idx: idx}
}

// Check reports liveness plus index state. A missing index is not a
// failure: the service answers listing queries before the first build.
func (h *HealthHandler) Check(c *gin.Context) {
	status := http.StatusOK
	dbOK := true
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		dbOK = false
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":      http.StatusText(status),
		"db":          dbOK,
		"index_ready": h.idx.Ready(),
		"index_size":  h.idx.Size(),
	})
}
