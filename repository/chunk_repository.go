package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"compliance-assistant-backend/models"
	"compliance-assistant-backend/service"
)

// ChunkRepository stores embedded document chunks in Postgres with pgvector
// and serves similarity searches over them. It implements
// service.VectorIndex.
type ChunkRepository struct {
	db         *pgxpool.Pool
	dimensions int
}

// NewChunkRepository creates a new chunk repository. dimensions must match
// the vector column width of the document_chunks table.
func NewChunkRepository(db *pgxpool.Pool, dimensions int) *ChunkRepository {
	return &ChunkRepository{db: db, dimensions: dimensions}
}

// formatVector formats an embedding vector as a string for pgx
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	var parts []string
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Upsert writes index entries, overwriting any existing row with the same
// chunk id. Entries that fail are reported individually; the batch continues.
func (r *ChunkRepository) Upsert(ctx context.Context, entries []models.IndexEntry) ([]models.UpsertFailure, error) {
	if r.db == nil {
		return nil, fmt.Errorf("chunk repository has no database connection")
	}

	var failures []models.UpsertFailure
	for _, entry := range entries {
		if len(entry.Embedding) != r.dimensions {
			failures = append(failures, models.UpsertFailure{
				ChunkID: entry.Chunk.ID,
				Reason:  fmt.Sprintf("embedding must be %d dimensions, got %d", r.dimensions, len(entry.Embedding)),
			})
			continue
		}

		_, err := r.db.Exec(ctx, `
			INSERT INTO document_chunks (
				id, document_id, document_name, document_type,
				chunk_index, chunk_text, character_count, word_count,
				model_version, embedding
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::vector)
			ON CONFLICT (id) DO UPDATE SET
				document_name = EXCLUDED.document_name,
				document_type = EXCLUDED.document_type,
				chunk_index = EXCLUDED.chunk_index,
				chunk_text = EXCLUDED.chunk_text,
				character_count = EXCLUDED.character_count,
				word_count = EXCLUDED.word_count,
				model_version = EXCLUDED.model_version,
				embedding = EXCLUDED.embedding,
				updated_at = NOW()`,
			entry.Chunk.ID,
			entry.Chunk.DocumentID,
			entry.DocumentName,
			string(entry.DocumentType),
			entry.Chunk.Index,
			entry.Chunk.Text,
			entry.Chunk.CharCount,
			entry.Chunk.WordCount,
			entry.ModelVersion,
			formatVector(entry.Embedding),
		)
		if err != nil {
			failures = append(failures, models.UpsertFailure{
				ChunkID: entry.Chunk.ID,
				Reason:  err.Error(),
			})
		}
	}
	return failures, nil
}

// Search returns the topK nearest chunks by cosine distance, constrained to
// the filter's model version and optional document type/id allow-lists.
// Scores are reported as 1 - distance.
func (r *ChunkRepository) Search(ctx context.Context, vector []float64, topK int, filter service.SearchFilter) ([]models.RetrievalResult, error) {
	if r.db == nil {
		return nil, fmt.Errorf("chunk repository has no database connection")
	}
	if len(vector) != r.dimensions {
		return nil, fmt.Errorf("embedding must be %d dimensions, got %d", r.dimensions, len(vector))
	}
	if topK <= 0 {
		topK = 10
	}

	args := []interface{}{formatVector(vector), filter.ModelVersion}
	conditions := []string{"model_version = $2"}

	if len(filter.DocumentTypes) > 0 {
		types := make([]string, 0, len(filter.DocumentTypes))
		for _, t := range filter.DocumentTypes {
			types = append(types, string(t))
		}
		args = append(args, types)
		conditions = append(conditions, fmt.Sprintf("document_type = ANY($%d)", len(args)))
	}
	if len(filter.DocumentIDs) > 0 {
		args = append(args, filter.DocumentIDs)
		conditions = append(conditions, fmt.Sprintf("document_id = ANY($%d)", len(args)))
	}

	args = append(args, topK)
	query := fmt.Sprintf(`
		SELECT
			id,
			document_id,
			document_name,
			chunk_text,
			embedding <=> $1::vector AS distance
		FROM document_chunks
		WHERE %s
		ORDER BY
			embedding <=> $1::vector
		LIMIT $%d`, strings.Join(conditions, "\n			AND "), len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query document chunks: %w", err)
	}
	defer rows.Close()

	var results []models.RetrievalResult
	for rows.Next() {
		var result models.RetrievalResult
		var distance float64
		if err := rows.Scan(
			&result.ChunkID,
			&result.DocumentID,
			&result.DocumentName,
			&result.Text,
			&distance,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document chunk: %w", err)
		}
		result.Score = 1 - distance
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document chunks: %w", err)
	}

	return results, nil
}

// DeleteByDocument removes every chunk belonging to a document.
func (r *ChunkRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	if r.db == nil {
		return fmt.Errorf("chunk repository has no database connection")
	}
	_, err := r.db.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks for document %s: %w", documentID, err)
	}
	return nil
}

// Stats reports the index's size and configuration for health checks.
func (r *ChunkRepository) Stats(ctx context.Context) (*models.IndexStats, error) {
	if r.db == nil {
		return nil, fmt.Errorf("chunk repository has no database connection")
	}

	stats := &models.IndexStats{Dimensions: r.dimensions}
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(DISTINCT document_id),
			COALESCE(MAX(model_version), '')
		FROM document_chunks`).Scan(&stats.TotalChunks, &stats.TotalDocuments, &stats.ModelVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to query index stats: %w", err)
	}
	return stats, nil
}
