package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docstack/docstack/internal/health"
)

// HealthHandler exposes the liveness snapshots. Both routes always answer 200;
// callers inspect the status field.
type HealthHandler struct {
	monitor *health.Monitor
}

func NewHealthHandler(m *health.Monitor) *HealthHandler {
	return &HealthHandler{monitor: m}
}

func (h *HealthHandler) Register(r gin.IRoutes) {
	r.GET("/health", h.Status)
	r.GET("/health/detailed", h.Detailed)
}

func (h *HealthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitor.Status(c.Request.Context()))
}

func (h *HealthHandler) Detailed(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitor.Detailed(c.Request.Context()))
}
