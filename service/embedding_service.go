package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/google/generative-ai-go/genai"
)

var (
	ErrDocumentNotFound      = errors.New("document not found")
	ErrEmbeddingFailed       = errors.New("failed to generate embedding")
	ErrGenerationFailed      = errors.New("failed to generate content")
	ErrGenerationUnavailable = errors.New("generation provider not available")
)

const (
	// embedBatchSize keeps batches inside the provider's request limits.
	embedBatchSize = 5
	// maxEmbedChars is the hard input cap of the embedding model.
	maxEmbedChars = 8000
)

// Embedder converts text into fixed-dimension vectors. EmbedDocuments
// preserves input order and length: index i of the result corresponds to
// texts[i] and is nil when that item failed to embed.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
	EmbedDocuments(ctx context.Context, texts []string) [][]float64
	Dimensions() int
	ModelVersion() string
}

// batchEmbedFunc is the provider call for one batch of document texts. It is
// resolved at construction so tests can substitute the remote call.
type batchEmbedFunc func(ctx context.Context, texts []string) ([][]float64, error)

// GeminiEmbedder produces embeddings via the Gemini embedding API.
type GeminiEmbedder struct {
	docModel   *genai.EmbeddingModel
	queryModel *genai.EmbeddingModel
	modelName  string
	dimensions int
	batchCall  batchEmbedFunc
}

// NewGeminiEmbedder creates an embedder bound to the given model. Document
// and query embeddings use the provider's respective retrieval task types.
func NewGeminiEmbedder(client *genai.Client, modelName string, dimensions int) *GeminiEmbedder {
	docModel := client.EmbeddingModel(modelName)
	docModel.TaskType = genai.TaskTypeRetrievalDocument

	queryModel := client.EmbeddingModel(modelName)
	queryModel.TaskType = genai.TaskTypeRetrievalQuery

	e := &GeminiEmbedder{
		docModel:   docModel,
		queryModel: queryModel,
		modelName:  modelName,
		dimensions: dimensions,
	}
	e.batchCall = e.callBatchAPI
	return e
}

// Dimensions returns the configured embedding dimensionality.
func (e *GeminiEmbedder) Dimensions() int { return e.dimensions }

// ModelVersion returns the embedding model name, used to tag index entries
// so that embeddings from different models are never mixed in one search.
func (e *GeminiEmbedder) ModelVersion() string { return e.modelName }

// EmbedQuery embeds a single retrieval query.
func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	if e.queryModel == nil {
		return nil, ErrEmbeddingFailed
	}

	text = truncateForEmbedding(text)
	resp, err := e.queryModel.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, ErrEmbeddingFailed
	}

	vector := toFloat64(resp.Embedding.Values)
	if len(vector) != e.dimensions {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d: %w",
			e.dimensions, len(vector), ErrEmbeddingFailed)
	}

	return normalize(vector), nil
}

// EmbedDocuments embeds texts in fixed-size batches. A failed batch maps to
// nil entries for its texts; the remaining batches still proceed, so the
// result always has len(texts) elements positionally aligned to the input.
func (e *GeminiEmbedder) EmbedDocuments(ctx context.Context, texts []string) [][]float64 {
	results := make([][]float64, len(texts))
	if len(texts) == 0 {
		return results
	}

	for _, batch := range partitionBatches(len(texts), embedBatchSize) {
		batchTexts := make([]string, 0, batch.end-batch.start)
		for _, t := range texts[batch.start:batch.end] {
			batchTexts = append(batchTexts, truncateForEmbedding(t))
		}

		vectors, err := e.batchCall(ctx, batchTexts)
		if err != nil {
			log.Printf("Warning: Batch embedding failed for items %d-%d: %v", batch.start, batch.end-1, err)
			continue
		}

		for i, vector := range vectors {
			if batch.start+i >= len(results) {
				break
			}
			if vector == nil {
				continue
			}
			if len(vector) != e.dimensions {
				log.Printf("Warning: Embedding dimension mismatch at item %d: expected %d, got %d",
					batch.start+i, e.dimensions, len(vector))
				continue
			}
			results[batch.start+i] = normalize(vector)
		}
	}

	return results
}

// callBatchAPI performs one provider batch call.
func (e *GeminiEmbedder) callBatchAPI(ctx context.Context, texts []string) ([][]float64, error) {
	if e.docModel == nil {
		return nil, ErrEmbeddingFailed
	}

	batch := e.docModel.NewBatch()
	for _, text := range texts {
		batch = batch.AddContent(genai.Text(text))
	}

	resp, err := e.docModel.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}

	vectors := make([][]float64, len(texts))
	for i, embedding := range resp.Embeddings {
		if i >= len(vectors) {
			break
		}
		if embedding != nil && len(embedding.Values) > 0 {
			vectors[i] = toFloat64(embedding.Values)
		}
	}
	return vectors, nil
}

type batchRange struct {
	start, end int
}

// partitionBatches splits n items into contiguous ranges of at most size.
func partitionBatches(n, size int) []batchRange {
	if n <= 0 || size <= 0 {
		return nil
	}
	var batches []batchRange
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		batches = append(batches, batchRange{start: start, end: end})
	}
	return batches
}

// truncateForEmbedding enforces the provider's input cap.
func truncateForEmbedding(text string) string {
	if len(text) > maxEmbedChars {
		log.Printf("Warning: Text truncated from %d to %d chars to fit embedding model limits", len(text), maxEmbedChars)
		return text[:maxEmbedChars]
	}
	return text
}

func toFloat64(values []float32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// normalize scales a vector to unit length so cosine distances stay in the
// range the similarity conversion assumes.
func normalize(vector []float64) []float64 {
	var norm float64
	for _, v := range vector {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vector
	}
	out := make([]float64, len(vector))
	for i, v := range vector {
		out[i] = v / norm
	}
	return out
}
