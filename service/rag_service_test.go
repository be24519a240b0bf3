package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance-assistant-backend/models"
)

type fakeEmbedder struct {
	queryErr  error
	docFails  map[int]bool // indexes whose document embedding returns nil
	dims      int
	lastQuery string
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	f.lastQuery = text
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return []float64{1, 0, 0}, nil
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) [][]float64 {
	out := make([][]float64, len(texts))
	for i := range texts {
		if f.docFails[i] {
			continue
		}
		out[i] = []float64{0, 1, 0}
	}
	return out
}

func (f *fakeEmbedder) Dimensions() int {
	if f.dims == 0 {
		return 3
	}
	return f.dims
}

func (f *fakeEmbedder) ModelVersion() string { return "fake-embedding-v1" }

type fakeIndex struct {
	upserted       []models.IndexEntry
	upsertFailures []models.UpsertFailure
	upsertErr      error
	searchResults  []models.RetrievalResult
	searchErr      error
	statsErr       error
	lastFilter     SearchFilter
	deleted        []string
}

func (f *fakeIndex) Upsert(ctx context.Context, entries []models.IndexEntry) ([]models.UpsertFailure, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	f.upserted = append(f.upserted, entries...)
	return f.upsertFailures, nil
}

func (f *fakeIndex) Search(ctx context.Context, vector []float64, topK int, filter SearchFilter) ([]models.RetrievalResult, error) {
	f.lastFilter = filter
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResults, nil
}

func (f *fakeIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	f.deleted = append(f.deleted, documentID)
	return nil
}

func (f *fakeIndex) Stats(ctx context.Context) (*models.IndexStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return &models.IndexStats{TotalChunks: 42, TotalDocuments: 3, ModelVersion: "fake-embedding-v1", Dimensions: 3}, nil
}

type fakeGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testService(embedder Embedder, index VectorIndex, generator Generator) *RAGService {
	return NewRAGService(
		RAGWithChunker(NewChunker(1000, 200)),
		RAGWithEmbedder(embedder),
		RAGWithVectorIndex(index),
		RAGWithGenerator(generator),
		RAGWithTopK(5),
		RAGWithContextMaxChars(6000),
		RAGWithMinDocumentLength(100),
	)
}

func policyDocument(id string) *models.Document {
	return &models.Document{
		ID:   id,
		Name: id + ".txt",
		Type: models.DocumentTypeCompany,
		TextContent: strings.Repeat(
			"The reporting entity must verify customer identity before providing designated services. ", 5),
	}
}

func TestIngestDocumentsAccounting(t *testing.T) {
	embedder := &fakeEmbedder{}
	index := &fakeIndex{}
	s := testService(embedder, index, nil)

	short := &models.Document{ID: "short", Name: "short.txt", TextContent: "too small"}
	report := s.IngestDocuments(context.Background(), []*models.Document{policyDocument("doc-1"), short})

	assert.Equal(t, 2, report.TotalDocuments)
	assert.Equal(t, 1, report.ProcessedDocuments)
	assert.Equal(t, 1, report.SkippedDocuments)
	assert.True(t, report.Success)
	assert.Empty(t, report.FailedDocuments)
	require.NotEmpty(t, index.upserted)
	for _, entry := range index.upserted {
		assert.Equal(t, "fake-embedding-v1", entry.ModelVersion)
		assert.Equal(t, "doc-1", entry.Chunk.DocumentID)
		assert.Equal(t, models.DocumentTypeCompany, entry.DocumentType)
	}
}

func TestIngestDocumentsAllEmbeddingsFail(t *testing.T) {
	embedder := &fakeEmbedder{docFails: map[int]bool{0: true}}
	index := &fakeIndex{}
	s := testService(embedder, index, nil)

	report := s.IngestDocuments(context.Background(), []*models.Document{policyDocument("doc-1")})

	assert.False(t, report.Success)
	require.Len(t, report.FailedDocuments, 1)
	assert.Equal(t, "doc-1", report.FailedDocuments[0].DocumentID)
	assert.Empty(t, index.upserted)
}

func TestIngestDocumentsUpsertError(t *testing.T) {
	embedder := &fakeEmbedder{}
	index := &fakeIndex{upsertErr: errors.New("connection refused")}
	s := testService(embedder, index, nil)

	report := s.IngestDocuments(context.Background(), []*models.Document{policyDocument("doc-1")})

	assert.False(t, report.Success)
	require.Len(t, report.FailedDocuments, 1)
	assert.Contains(t, report.FailedDocuments[0].Reason, "index upsert failed")
}

func TestRetrieveTagsOutcome(t *testing.T) {
	embedder := &fakeEmbedder{}
	index := &fakeIndex{searchResults: []models.RetrievalResult{
		{ChunkID: "c1", DocumentName: "reg.txt", Text: "rule text", Score: 0.9},
	}}
	s := testService(embedder, index, nil)

	outcome := s.Retrieve(context.Background(), "record keeping", SearchFilter{})

	assert.Equal(t, RetrievalOK, outcome.Status)
	require.Len(t, outcome.Results, 1)
	// The search is always constrained to the configured embedding model.
	assert.Equal(t, "fake-embedding-v1", index.lastFilter.ModelVersion)
}

func TestRetrieveEmpty(t *testing.T) {
	s := testService(&fakeEmbedder{}, &fakeIndex{}, nil)

	outcome := s.Retrieve(context.Background(), "anything", SearchFilter{})

	assert.Equal(t, RetrievalEmpty, outcome.Status)
	assert.Empty(t, outcome.Results)
}

func TestRetrieveDegradedOnEmbeddingFailure(t *testing.T) {
	s := testService(&fakeEmbedder{queryErr: errors.New("api down")}, &fakeIndex{}, nil)

	outcome := s.Retrieve(context.Background(), "anything", SearchFilter{})

	assert.Equal(t, RetrievalDegraded, outcome.Status)
	assert.Contains(t, outcome.Reason, "query embedding failed")
}

func TestRetrieveDegradedOnSearchFailure(t *testing.T) {
	s := testService(&fakeEmbedder{}, &fakeIndex{searchErr: errors.New("timeout")}, nil)

	outcome := s.Retrieve(context.Background(), "anything", SearchFilter{})

	assert.Equal(t, RetrievalDegraded, outcome.Status)
	assert.Contains(t, outcome.Reason, "vector search failed")
}

func TestAnalyzeDocumentHappyPath(t *testing.T) {
	embedder := &fakeEmbedder{}
	index := &fakeIndex{searchResults: []models.RetrievalResult{
		{ChunkID: "c1", DocumentName: "austrac-guide.txt", Text: "AML program requirements", Score: 0.88},
	}}
	generator := &fakeGenerator{response: `{
		"overall_summary": "Mostly compliant.",
		"key_themes": ["CDD"],
		"suggested_changes": [],
		"action_plan": []
	}`}
	s := testService(embedder, index, generator)

	doc := policyDocument("doc-1")
	result := s.AnalyzeDocument(context.Background(), doc)

	assert.False(t, result.Degraded)
	assert.Equal(t, models.AnalysisTypeDeepDive, result.Type)
	assert.Equal(t, "Mostly compliant.", result.OverallSummary)
	assert.True(t, strings.HasPrefix(result.Name, "Deep Dive: doc-1.txt"))
	assert.NotContains(t, result.Name, "(Enhanced Mock)")
	assert.NotEmpty(t, result.ID)
	require.Len(t, result.GroundingSources, 1)
	assert.Equal(t, "austrac-guide.txt", result.GroundingSources[0].DocumentName)
	// The prompt carried both the document and the retrieved context.
	assert.Contains(t, generator.lastPrompt, "AML program requirements")
	assert.Contains(t, generator.lastPrompt, doc.Name)
}

func TestAnalyzeDocumentWithoutGeneratorUsesMock(t *testing.T) {
	s := testService(&fakeEmbedder{}, &fakeIndex{}, nil)

	result := s.AnalyzeDocument(context.Background(), policyDocument("doc-1"))

	assert.True(t, result.Degraded)
	assert.Contains(t, result.Name, "(Enhanced Mock)")
	assert.NotEmpty(t, result.SuggestedChanges)
	require.NotNil(t, result.GroundingSources)
}

func TestAnalyzeDocumentGenerationErrorUsesMock(t *testing.T) {
	generator := &fakeGenerator{err: errors.New("deadline exceeded")}
	s := testService(&fakeEmbedder{}, &fakeIndex{}, generator)

	result := s.AnalyzeDocument(context.Background(), policyDocument("doc-1"))

	assert.True(t, result.Degraded)
	assert.Contains(t, result.DegradedReason, "generation failed")
}

func TestAnalyzeDocumentUnparsableOutputFallsBack(t *testing.T) {
	generator := &fakeGenerator{response: "I cannot produce JSON today."}
	s := testService(&fakeEmbedder{}, &fakeIndex{}, generator)

	result := s.AnalyzeDocument(context.Background(), policyDocument("doc-1"))

	assert.True(t, result.Degraded)
	require.Len(t, result.SuggestedChanges, 1)
	assert.True(t, strings.HasPrefix(result.SuggestedChanges[0].ID, "fallback-"))
}

func TestTargetQueryMappings(t *testing.T) {
	assert.Equal(t, "customer identification verification requirements AUSTRAC", targetQuery("customer-identification"))
	assert.Equal(t, "record keeping requirements retention periods", targetQuery("record-keeping"))
	// Unmapped ids fall back to a title-cased readable query.
	assert.Equal(t, "Custom Area", targetQuery("custom-area"))
	assert.Equal(t, "Digital Currency Exchange", targetQuery("digital-currency-exchange"))
}

func TestAnalyzeGapRetrievesPerTarget(t *testing.T) {
	embedder := &fakeEmbedder{}
	index := &fakeIndex{searchResults: []models.RetrievalResult{
		{ChunkID: "c1", DocumentName: "austrac-act.txt", Text: "Retention period is seven years.", Score: 0.8},
	}}
	generator := &fakeGenerator{response: `{"overall_summary": "Gaps identified."}`}
	s := testService(embedder, index, generator)

	docs := []*models.Document{policyDocument("doc-1"), policyDocument("doc-2")}
	result := s.AnalyzeGap(context.Background(), docs, []string{"record-keeping"})

	assert.Equal(t, models.AnalysisTypeGapReview, result.Type)
	assert.False(t, result.Degraded)
	assert.True(t, strings.HasPrefix(result.Name, "Gap Review"))
	assert.Contains(t, generator.lastPrompt, "**Regulatory Area: record-keeping**")
	assert.Contains(t, generator.lastPrompt, "Retention period is seven years.")
	assert.Contains(t, generator.lastPrompt, "doc-1.txt")
	assert.Contains(t, generator.lastPrompt, "doc-2.txt")
	require.Len(t, result.GroundingSources, 1)
}

func TestAnalyzeGapDegradedRetrieval(t *testing.T) {
	embedder := &fakeEmbedder{queryErr: errors.New("api down")}
	generator := &fakeGenerator{response: `{"overall_summary": "Done."}`}
	s := testService(embedder, &fakeIndex{}, generator)

	result := s.AnalyzeGap(context.Background(), []*models.Document{policyDocument("doc-1")}, []string{"record-keeping"})

	assert.True(t, result.Degraded)
	assert.Contains(t, generator.lastPrompt, "General AUSTRAC and ASIC compliance requirements apply")
}

func TestChatGroundsResponse(t *testing.T) {
	index := &fakeIndex{searchResults: []models.RetrievalResult{
		{ChunkID: "c1", DocumentName: "policy.txt", Text: "Records are kept for seven years.", Score: 0.95},
	}}
	generator := &fakeGenerator{response: "Records must be kept for seven years [1]."}
	s := testService(&fakeEmbedder{}, index, generator)

	result := s.Chat(context.Background(), "How long are records kept?",
		[]models.ChatMessage{{Sender: "user", Text: "Hi"}})

	assert.False(t, result.Degraded)
	assert.Equal(t, "Records must be kept for seven years [1].", result.Response)
	require.Len(t, result.Sources, 1)
	assert.Contains(t, generator.lastPrompt, "Records are kept for seven years.")
	assert.Contains(t, generator.lastPrompt, "How long are records kept?")
}

func TestChatWithoutGenerator(t *testing.T) {
	s := testService(&fakeEmbedder{}, &fakeIndex{}, nil)

	result := s.Chat(context.Background(), "Hello", nil)

	assert.True(t, result.Degraded)
	assert.Contains(t, result.Response, "temporarily unavailable")
}

func TestGenerateDraftFallsBackToMock(t *testing.T) {
	s := testService(&fakeEmbedder{}, &fakeIndex{}, nil)
	doc := policyDocument("doc-1")
	change := models.SuggestedChange{DocumentSection: "Section 1", SuggestedModification: "Add screening"}

	draft, degraded := s.GenerateDraft(context.Background(), doc, change)

	assert.True(t, degraded)
	assert.Contains(t, draft, "--- UPDATED DRAFT (AI-Enhanced) ---")
}

func TestGenerateDraftHappyPath(t *testing.T) {
	generator := &fakeGenerator{response: "Updated document text."}
	s := testService(&fakeEmbedder{}, &fakeIndex{}, generator)

	draft, degraded := s.GenerateDraft(context.Background(), policyDocument("doc-1"), models.SuggestedChange{})

	assert.False(t, degraded)
	assert.Equal(t, "Updated document text.", draft)
}

func TestReindexDocumentClearsBeforeIngest(t *testing.T) {
	index := &fakeIndex{}
	s := testService(&fakeEmbedder{}, index, nil)
	doc := policyDocument("doc-1")

	report, err := s.ReindexDocument(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1"}, index.deleted)
	assert.Equal(t, 1, report.ProcessedDocuments)
}

func TestHealthCheckAggregation(t *testing.T) {
	s := testService(&fakeEmbedder{}, &fakeIndex{}, &fakeGenerator{response: "ok"})

	report := s.HealthCheck(context.Background())

	assert.Equal(t, models.HealthHealthy, report.Status)
	assert.True(t, report.Components["embedding"].Healthy)
	assert.True(t, report.Components["vector_index"].Healthy)
	assert.True(t, report.Components["generation"].Healthy)
}

func TestHealthCheckDegradedWithoutGenerator(t *testing.T) {
	s := testService(&fakeEmbedder{}, &fakeIndex{}, nil)

	report := s.HealthCheck(context.Background())

	assert.Equal(t, models.HealthDegraded, report.Status)
	assert.Equal(t, models.HealthDegraded, report.Components["generation"].Status)
}

func TestHealthCheckUnhealthyOnBackendFailure(t *testing.T) {
	s := testService(&fakeEmbedder{queryErr: errors.New("api down")}, &fakeIndex{statsErr: errors.New("db down")}, nil)

	report := s.HealthCheck(context.Background())

	assert.Equal(t, models.HealthUnhealthy, report.Status)
	assert.Equal(t, models.HealthUnhealthy, report.Components["embedding"].Status)
	assert.Equal(t, models.HealthUnhealthy, report.Components["vector_index"].Status)
}
