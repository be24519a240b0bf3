package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"compliance-assistant-backend/models"
	"compliance-assistant-backend/service"
)

// HealthHandler handles liveness and RAG health probes
type HealthHandler struct {
	rag *service.RAGService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(rag *service.RAGService) *HealthHandler {
	return &HealthHandler{rag: rag}
}

// Liveness handles GET /health
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RAGHealth handles GET /api/rag/health. It always returns a report; the
// HTTP status mirrors the aggregate state so load balancers can act on it.
func (h *HealthHandler) RAGHealth(c *gin.Context) {
	report := h.rag.HealthCheck(c.Request.Context())

	status := http.StatusOK
	if report.Status == models.HealthUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"success": true,
		"data":    report,
	})
}

// IndexStats handles GET /api/rag/stats
func (h *HealthHandler) IndexStats(c *gin.Context) {
	stats, err := h.rag.IndexStats(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "STATS_FAILED", "Failed to query index statistics")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}
