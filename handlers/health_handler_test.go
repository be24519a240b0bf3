package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance-assistant-backend/service"
)

func TestRAGHealthDegradedWithoutGenerator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rag := service.NewRAGService(
		service.RAGWithEmbedder(stubEmbedder{}),
		service.RAGWithVectorIndex(stubIndex{}),
	)
	r := gin.New()
	h := NewHealthHandler(rag)
	r.GET("/api/rag/health", h.RAGHealth)

	req := httptest.NewRequest(http.MethodGet, "/api/rag/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// Degraded is still serving traffic; only unhealthy flips the status.
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Status     string `json:"status"`
			Components map[string]struct {
				Status string `json:"status"`
			} `json:"components"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Data.Status)
	assert.Equal(t, "degraded", resp.Data.Components["generation"].Status)
	assert.Equal(t, "healthy", resp.Data.Components["embedding"].Status)
}

func TestLiveness(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHealthHandler(nil)
	r.GET("/health", h.Liveness)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
