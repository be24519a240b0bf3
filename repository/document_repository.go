package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"compliance-assistant-backend/models"
)

// ErrDocumentNotFound is returned when a document id has no row.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentRepository handles database operations for compliance documents
type DocumentRepository struct {
	db *pgxpool.Pool
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create creates a new document record
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (
			id, name, document_type, text_content, size, storage_path,
			rag_processed, last_modified
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		) RETURNING created_at`

	err := r.db.QueryRow(
		ctx, query,
		doc.ID,
		doc.Name,
		string(doc.Type),
		doc.TextContent,
		doc.Size,
		doc.StoragePath,
		doc.RAGProcessed,
		doc.LastModified,
	).Scan(&doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// GetByID retrieves a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	doc := &models.Document{}
	var docType string
	query := `
		SELECT id, name, document_type, text_content, size, storage_path,
			rag_processed, last_modified, created_at
		FROM documents
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.Name,
		&docType,
		&doc.TextContent,
		&doc.Size,
		&doc.StoragePath,
		&doc.RAGProcessed,
		&doc.LastModified,
		&doc.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	doc.Type = models.DocumentType(docType)
	return doc, nil
}

// GetByIDs retrieves multiple documents, preserving only those that exist.
func (r *DocumentRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, `
		SELECT id, name, document_type, text_content, size, storage_path,
			rag_processed, last_modified, created_at
		FROM documents
		WHERE id = ANY($1)
		ORDER BY created_at`, ids)
}

// List retrieves all documents, newest first.
func (r *DocumentRepository) List(ctx context.Context) ([]*models.Document, error) {
	return r.list(ctx, `
		SELECT id, name, document_type, text_content, size, storage_path,
			rag_processed, last_modified, created_at
		FROM documents
		ORDER BY created_at DESC`)
}

// ListByType retrieves all documents of one type, newest first.
func (r *DocumentRepository) ListByType(ctx context.Context, docType models.DocumentType) ([]*models.Document, error) {
	return r.list(ctx, `
		SELECT id, name, document_type, text_content, size, storage_path,
			rag_processed, last_modified, created_at
		FROM documents
		WHERE document_type = $1
		ORDER BY created_at DESC`, string(docType))
}

func (r *DocumentRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Document, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc := &models.Document{}
		var docType string
		if err := rows.Scan(
			&doc.ID,
			&doc.Name,
			&docType,
			&doc.TextContent,
			&doc.Size,
			&doc.StoragePath,
			&doc.RAGProcessed,
			&doc.LastModified,
			&doc.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.Type = models.DocumentType(docType)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}
	return docs, nil
}

// SetRAGProcessed updates a document's ingestion flag.
func (r *DocumentRepository) SetRAGProcessed(ctx context.Context, id string, processed bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE documents SET rag_processed = $2 WHERE id = $1`, id, processed)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// Delete removes a document record.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}
