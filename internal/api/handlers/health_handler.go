package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/transparencity/backend/internal/version"
)

// Pinger reports whether an optional dependency is reachable.
type Pinger interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db    *gorm.DB
	cache Pinger
}

func NewHealthHandler(db *gorm.DB, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Check responds with service metadata and dependency status. A database outage yields 503;
// the cache is optional and only reported.
func (h *HealthHandler) Check(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":     "ok",
		"service":    version.Name,
		"version":    version.Version,
		"git_commit": version.GitCommit,
		"build_time": version.BuildTime,
		"database":   "ok",
	}

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["database"] = "unreachable"
	}
	if h.cache != nil {
		body["cache"] = "ok"
		if err := h.cache.Health(c.Request.Context()); err != nil {
			body["cache"] = "unreachable"
		}
	}
	c.JSON(status, body)
}
