package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"agentmart.backend/pkg/redis"
)

// HealthHandler reports process liveness plus dependency reachability.
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health checks the service and its backing stores
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	status := http.StatusOK
	checks := gin.H{"database": "ok", "redis": "ok"}

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		checks["database"] = "unreachable"
		status = http.StatusServiceUnavailable
	}

	if client := redis.GetClient(); client == nil || client.Ping(c.Request.Context()).Err() != nil {
		checks["redis"] = "unreachable"
		status = http.StatusServiceUnavailable
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status": overall,
		"checks": checks,
	})
}
