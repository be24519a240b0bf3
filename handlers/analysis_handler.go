package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"compliance-assistant-backend/models"
	"compliance-assistant-backend/repository"
	"compliance-assistant-backend/service"
)

// AnalysisHandler handles HTTP requests for compliance analysis operations
type AnalysisHandler struct {
	docRepo *repository.DocumentRepository
	rag     *service.RAGService
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(docRepo *repository.DocumentRepository, rag *service.RAGService) *AnalysisHandler {
	return &AnalysisHandler{docRepo: docRepo, rag: rag}
}

// DeepDiveRequest is the payload for a single-document analysis.
type DeepDiveRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
}

// DeepDive handles POST /api/analysis/deep-dive
func (h *AnalysisHandler) DeepDive(c *gin.Context) {
	var req DeepDiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "document_id is required")
		return
	}

	doc, err := h.docRepo.GetByID(c.Request.Context(), req.DocumentID)
	if errors.Is(err, repository.ErrDocumentNotFound) {
		errorResponse(c, http.StatusNotFound, "DOCUMENT_NOT_FOUND", "Document not found")
		return
	}
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "DOCUMENT_GET_FAILED", "Failed to get document")
		return
	}

	result := h.rag.AnalyzeDocument(c.Request.Context(), doc)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// GapReviewRequest is the payload for a multi-document gap review.
type GapReviewRequest struct {
	CompanyDocumentIDs  []string `json:"company_document_ids" binding:"required"`
	TargetRegulatoryIDs []string `json:"target_regulatory_ids" binding:"required"`
}

// GapReview handles POST /api/analysis/gap-review
func (h *AnalysisHandler) GapReview(c *gin.Context) {
	var req GapReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST",
			"company_document_ids and target_regulatory_ids are required")
		return
	}
	if len(req.CompanyDocumentIDs) == 0 {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "at least one company document is required")
		return
	}

	docs, err := h.docRepo.GetByIDs(c.Request.Context(), req.CompanyDocumentIDs)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "DOCUMENT_GET_FAILED", "Failed to get company documents")
		return
	}
	if len(docs) == 0 {
		errorResponse(c, http.StatusNotFound, "DOCUMENT_NOT_FOUND", "No matching company documents found")
		return
	}

	result := h.rag.AnalyzeGap(c.Request.Context(), docs, req.TargetRegulatoryIDs)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// DraftRequest is the payload for a draft rewrite applying one suggestion.
type DraftRequest struct {
	DocumentID    string                 `json:"document_id" binding:"required"`
	ChangeToDraft models.SuggestedChange `json:"change_to_draft" binding:"required"`
}

// GenerateDraft handles POST /api/analysis/draft
func (h *AnalysisHandler) GenerateDraft(c *gin.Context) {
	var req DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "document_id and change_to_draft are required")
		return
	}

	doc, err := h.docRepo.GetByID(c.Request.Context(), req.DocumentID)
	if errors.Is(err, repository.ErrDocumentNotFound) {
		errorResponse(c, http.StatusNotFound, "DOCUMENT_NOT_FOUND", "Document not found")
		return
	}
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "DOCUMENT_GET_FAILED", "Failed to get document")
		return
	}

	draft, degraded := h.rag.GenerateDraft(c.Request.Context(), doc, req.ChangeToDraft)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"draft":    draft,
			"degraded": degraded,
		},
	})
}
