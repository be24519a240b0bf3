package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"compliance-assistant-backend/config"
	"compliance-assistant-backend/models"
	"compliance-assistant-backend/repository"
	"compliance-assistant-backend/service"
	"compliance-assistant-backend/storage"
)

// DocumentHandler handles HTTP requests for document operations
type DocumentHandler struct {
	docRepo *repository.DocumentRepository
	rag     *service.RAGService
	storage storage.Storage
	cfg     *config.Config
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docRepo *repository.DocumentRepository, rag *service.RAGService, store storage.Storage, cfg *config.Config) *DocumentHandler {
	return &DocumentHandler{
		docRepo: docRepo,
		rag:     rag,
		storage: store,
		cfg:     cfg,
	}
}

func errorResponse(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// UploadDocument handles POST /api/documents/upload
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	docType := models.DocumentType(c.PostForm("type"))
	if !models.ValidDocumentType(docType) {
		errorResponse(c, http.StatusBadRequest, "INVALID_DOCUMENT_TYPE",
			"type must be one of: company, regulatory, austrac")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "MISSING_FILE", "File is required")
		return
	}

	if fileHeader.Size > h.cfg.MaxFileSizeBytes() {
		errorResponse(c, http.StatusBadRequest, "FILE_TOO_LARGE",
			fmt.Sprintf("File exceeds maximum size of %dMB", h.cfg.MaxFileSizeMB))
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !h.cfg.ExtensionAllowed(ext) {
		errorResponse(c, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE",
			fmt.Sprintf("File extension %s is not supported", ext))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "FILE_READ_FAILED", "Failed to read uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "FILE_READ_FAILED", "Failed to read uploaded file")
		return
	}

	// Plain-text formats carry their own content; otherwise the caller
	// supplies the extracted text alongside the original file.
	textContent := c.PostForm("text_content")
	if textContent == "" && (ext == ".txt" || ext == ".md") {
		textContent = string(data)
	}
	if len(strings.TrimSpace(textContent)) < h.cfg.MinDocumentLength {
		errorResponse(c, http.StatusBadRequest, "INSUFFICIENT_CONTENT",
			fmt.Sprintf("Document text must be at least %d characters", h.cfg.MinDocumentLength))
		return
	}

	doc := &models.Document{
		ID:           models.NewDocumentID(),
		Name:         fileHeader.Filename,
		Type:         docType,
		TextContent:  textContent,
		Size:         fileHeader.Size,
		LastModified: time.Now().UTC(),
	}

	storagePath, err := h.storage.Upload(c.Request.Context(), doc.Type, doc.ID, doc.Name, bytes.NewReader(data))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "STORAGE_FAILED", "Failed to store document file")
		return
	}
	doc.StoragePath = storagePath

	if err := h.docRepo.Create(c.Request.Context(), doc); err != nil {
		// Roll back the stored file so storage and registry stay in step.
		if delErr := h.storage.Delete(c.Request.Context(), storagePath); delErr != nil {
			log.Printf("Warning: Failed to clean up stored file %s: %v", storagePath, delErr)
		}
		errorResponse(c, http.StatusInternalServerError, "DOCUMENT_CREATE_FAILED", "Failed to register document")
		return
	}

	report := h.rag.IngestDocuments(c.Request.Context(), []*models.Document{doc})
	if report.ProcessedDocuments > 0 {
		doc.RAGProcessed = true
		if err := h.docRepo.SetRAGProcessed(c.Request.Context(), doc.ID, true); err != nil {
			log.Printf("Warning: Failed to flag document %s as processed: %v", doc.ID, err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"id":            doc.ID,
			"name":          doc.Name,
			"type":          doc.Type,
			"size":          doc.Size,
			"rag_processed": doc.RAGProcessed,
			"ingestion":     report,
		},
	})
}

// ListDocuments handles GET /api/documents
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	var (
		docs []*models.Document
		err  error
	)

	if docType := c.Query("type"); docType != "" {
		if !models.ValidDocumentType(models.DocumentType(docType)) {
			errorResponse(c, http.StatusBadRequest, "INVALID_DOCUMENT_TYPE",
				"type must be one of: company, regulatory, austrac")
			return
		}
		docs, err = h.docRepo.ListByType(c.Request.Context(), models.DocumentType(docType))
	} else {
		docs, err = h.docRepo.List(c.Request.Context())
	}
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "DOCUMENT_LIST_FAILED", "Failed to list documents")
		return
	}

	summaries := make([]gin.H, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, gin.H{
			"id":            doc.ID,
			"name":          doc.Name,
			"type":          doc.Type,
			"size":          doc.Size,
			"rag_processed": doc.RAGProcessed,
			"last_modified": doc.LastModified,
			"created_at":    doc.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    summaries,
	})
}

// GetDocument handles GET /api/documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	doc, err := h.docRepo.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrDocumentNotFound) {
		errorResponse(c, http.StatusNotFound, "DOCUMENT_NOT_FOUND", "Document not found")
		return
	}
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "DOCUMENT_GET_FAILED", "Failed to get document")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    doc,
	})
}

// DeleteDocument handles DELETE /api/documents/:id
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	id := c.Param("id")
	doc, err := h.docRepo.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrDocumentNotFound) {
		errorResponse(c, http.StatusNotFound, "DOCUMENT_NOT_FOUND", "Document not found")
		return
	}
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "DOCUMENT_GET_FAILED", "Failed to get document")
		return
	}

	if err := h.rag.RemoveDocument(c.Request.Context(), id); err != nil {
		errorResponse(c, http.StatusInternalServerError, "INDEX_DELETE_FAILED", "Failed to remove document from index")
		return
	}
	if doc.StoragePath != "" {
		if err := h.storage.Delete(c.Request.Context(), doc.StoragePath); err != nil {
			log.Printf("Warning: Failed to delete stored file %s: %v", doc.StoragePath, err)
		}
	}
	if err := h.docRepo.Delete(c.Request.Context(), id); err != nil {
		errorResponse(c, http.StatusInternalServerError, "DOCUMENT_DELETE_FAILED", "Failed to delete document")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id": id,
		},
	})
}

// DownloadDocument handles GET /api/documents/:id/download
func (h *DocumentHandler) DownloadDocument(c *gin.Context) {
	doc, err := h.docRepo.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrDocumentNotFound) {
		errorResponse(c, http.StatusNotFound, "DOCUMENT_NOT_FOUND", "Document not found")
		return
	}
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "DOCUMENT_GET_FAILED", "Failed to get document")
		return
	}
	if doc.StoragePath == "" {
		errorResponse(c, http.StatusNotFound, "FILE_NOT_FOUND", "Document has no stored file")
		return
	}

	reader, err := h.storage.Download(c.Request.Context(), doc.StoragePath)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "STORAGE_FAILED", "Failed to retrieve document file")
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Name))
	c.DataFromReader(http.StatusOK, doc.Size, "application/octet-stream", reader, nil)
}

// ReindexDocument handles POST /api/documents/:id/reindex
func (h *DocumentHandler) ReindexDocument(c *gin.Context) {
	doc, err := h.docRepo.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrDocumentNotFound) {
		errorResponse(c, http.StatusNotFound, "DOCUMENT_NOT_FOUND", "Document not found")
		return
	}
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "DOCUMENT_GET_FAILED", "Failed to get document")
		return
	}

	report, err := h.rag.ReindexDocument(c.Request.Context(), doc)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "REINDEX_FAILED", "Failed to reindex document")
		return
	}

	processed := report.ProcessedDocuments > 0
	if err := h.docRepo.SetRAGProcessed(c.Request.Context(), doc.ID, processed); err != nil {
		log.Printf("Warning: Failed to update processed flag for %s: %v", doc.ID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// ReindexAll handles POST /api/documents/reindex
func (h *DocumentHandler) ReindexAll(c *gin.Context) {
	docs, err := h.docRepo.List(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "DOCUMENT_LIST_FAILED", "Failed to list documents")
		return
	}

	for _, doc := range docs {
		if err := h.rag.RemoveDocument(c.Request.Context(), doc.ID); err != nil {
			errorResponse(c, http.StatusInternalServerError, "INDEX_DELETE_FAILED",
				fmt.Sprintf("Failed to clear index entries for %s", doc.ID))
			return
		}
	}

	report := h.rag.IngestDocuments(c.Request.Context(), docs)

	failed := make(map[string]bool, len(report.FailedDocuments))
	for _, f := range report.FailedDocuments {
		failed[f.DocumentID] = true
	}
	for _, doc := range docs {
		if err := h.docRepo.SetRAGProcessed(c.Request.Context(), doc.ID, !failed[doc.ID]); err != nil {
			log.Printf("Warning: Failed to update processed flag for %s: %v", doc.ID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}
