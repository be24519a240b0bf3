package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"compliance-assistant-backend/models"
	"compliance-assistant-backend/service"
)

// ChatHandler handles HTTP requests for the compliance chat
type ChatHandler struct {
	rag *service.RAGService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(rag *service.RAGService) *ChatHandler {
	return &ChatHandler{rag: rag}
}

// ChatRequest is the payload for one chat turn.
type ChatRequest struct {
	Message string               `json:"message" binding:"required"`
	History []models.ChatMessage `json:"history"`
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "message is required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "message must not be empty")
		return
	}

	result := h.rag.Chat(c.Request.Context(), req.Message, req.History)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}
