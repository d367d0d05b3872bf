package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"creditscope/internal/port"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	gateway port.ModelGateway
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(gateway port.ModelGateway) *HealthHandler {
	return &HealthHandler{gateway: gateway}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz
func (h *HealthHandler) Readiness(c *gin.Context) {
	if err := h.gateway.CheckConnectivity(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "inference service not reachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "model": h.gateway.ModelName()})
}
