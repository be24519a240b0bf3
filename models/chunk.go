package models

// Chunk is a bounded segment of a document's text, the unit of embedding and
// retrieval. Chunk IDs are derived deterministically from the document id,
// the sequence index and a content hash, so re-ingesting an unchanged
// document overwrites rather than duplicates index entries.
type Chunk struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Index      int    `json:"chunk_index"`
	Text       string `json:"text"`
	CharCount  int    `json:"character_count"`
	WordCount  int    `json:"word_count"`
}

// IndexEntry is the unit upserted into the vector index: one embedded chunk
// plus the metadata used for filtered search.
type IndexEntry struct {
	Chunk        Chunk
	Embedding    []float64
	DocumentName string
	DocumentType DocumentType
	ModelVersion string
}

// UpsertFailure records a single index entry that could not be written.
type UpsertFailure struct {
	ChunkID string `json:"chunk_id"`
	Reason  string `json:"reason"`
}

// RetrievalResult is one ranked neighbor from a similarity search. Score is
// 1 - distance; with cosine distance over normalized embeddings it falls in
// [0, 1], an assumption specific to the pgvector backend.
type RetrievalResult struct {
	ChunkID      string  `json:"chunk_id"`
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	Text         string  `json:"text"`
	Score        float64 `json:"similarity_score"`
}

// IndexStats describes the state of the vector index for health reporting.
type IndexStats struct {
	TotalChunks    int    `json:"total_chunks"`
	TotalDocuments int    `json:"total_documents"`
	ModelVersion   string `json:"model_version"`
	Dimensions     int    `json:"dimensions"`
}
