package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentType classifies a stored document.
type DocumentType string

const (
	DocumentTypeCompany    DocumentType = "company"
	DocumentTypeRegulatory DocumentType = "regulatory"
	DocumentTypeAustrac    DocumentType = "austrac"
)

// ValidDocumentType reports whether t is one of the known document types.
func ValidDocumentType(t DocumentType) bool {
	switch t {
	case DocumentTypeCompany, DocumentTypeRegulatory, DocumentTypeAustrac:
		return true
	}
	return false
}

// Document is an uploaded compliance document with its extracted text.
// Documents are immutable once stored; a reindex regenerates chunks rather
// than mutating the document row.
type Document struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Type         DocumentType `json:"type"`
	TextContent  string       `json:"text_content"`
	Size         int64        `json:"size"`
	StoragePath  string       `json:"storage_path,omitempty"`
	RAGProcessed bool         `json:"rag_processed"`
	LastModified time.Time    `json:"last_modified"`
	CreatedAt    time.Time    `json:"created_at"`
}

// NewDocumentID returns a fresh document identifier.
func NewDocumentID() string {
	return uuid.New().String()
}

// IngestionReport summarizes a batch ingestion run.
type IngestionReport struct {
	TotalDocuments     int               `json:"total_documents"`
	ProcessedDocuments int               `json:"processed_documents"`
	SkippedDocuments   int               `json:"skipped_documents"`
	TotalChunks        int               `json:"total_chunks"`
	SuccessfulChunks   int               `json:"successful_chunks"`
	FailedDocuments    []DocumentFailure `json:"failed_documents"`
	Success            bool              `json:"success"`
}

// DocumentFailure records a per-document ingestion failure. The batch
// continues past these; they are reported, not raised.
type DocumentFailure struct {
	DocumentID string `json:"document_id"`
	Reason     string `json:"reason"`
}

// ChatMessage is a single turn of a compliance chat conversation.
type ChatMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// ChatResult is the outcome of a chat request: the generated reply plus the
// retrieval sources that grounded it.
type ChatResult struct {
	Response string            `json:"response"`
	Sources  []RetrievalResult `json:"sources"`
	Degraded bool              `json:"degraded"`
}
