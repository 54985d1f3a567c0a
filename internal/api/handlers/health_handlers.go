package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/tmb8080/nova-sub001/internal/infrastructure/cache"
	"github.com/tmb8080/nova-sub001/internal/infrastructure/database"
)

// HealthHandlers serves liveness and readiness probes
type HealthHandlers struct {
	db    *sqlx.DB
	redis cache.RedisClient
}

// NewHealthHandlers creates a new HealthHandlers instance
func NewHealthHandlers(db *sqlx.DB, redis cache.RedisClient) *HealthHandlers {
	return &HealthHandlers{db: db, redis: redis}
}

// Health handles GET /health
func (h *HealthHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

// Ready handles GET /ready, checking the database and redis
func (h *HealthHandlers) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := gin.H{"database": "ok", "redis": "ok"}
	healthy := true

	if err := database.HealthCheck(h.db); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}
	if err := h.redis.Ping(ctx); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"checks": checks})
}
