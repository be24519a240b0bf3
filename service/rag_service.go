package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"compliance-assistant-backend/models"
)

// SearchFilter restricts a similarity search to a subset of the index. Empty
// slices mean no restriction; ModelVersion is always set by the service so
// embeddings from different models are never compared.
type SearchFilter struct {
	DocumentTypes []models.DocumentType
	DocumentIDs   []string
	ModelVersion  string
}

// VectorIndex is the similarity-search backend. Upsert is idempotent per
// chunk id (last write wins) and reports per-entry failures without aborting
// the batch.
type VectorIndex interface {
	Upsert(ctx context.Context, entries []models.IndexEntry) ([]models.UpsertFailure, error)
	Search(ctx context.Context, vector []float64, topK int, filter SearchFilter) ([]models.RetrievalResult, error)
	DeleteByDocument(ctx context.Context, documentID string) error
	Stats(ctx context.Context) (*models.IndexStats, error)
}

// RetrievalStatus tags the outcome of a retrieval pass so callers branch on
// an explicit state instead of inspecting errors.
type RetrievalStatus int

const (
	// RetrievalOK means ranked results were found.
	RetrievalOK RetrievalStatus = iota
	// RetrievalEmpty means the search succeeded but matched nothing; the
	// pipeline proceeds with the no-context sentinel.
	RetrievalEmpty
	// RetrievalDegraded means embedding or search failed; the pipeline
	// proceeds without context and marks the response degraded.
	RetrievalDegraded
)

// RetrievalOutcome is the result of one retrieval pass.
type RetrievalOutcome struct {
	Status  RetrievalStatus
	Results []models.RetrievalResult
	Reason  string
}

// RAGService orchestrates the two top-level pipelines: ingestion
// (chunk, embed, upsert) and query (embed, search, assemble, generate,
// parse). A nil Generator is a supported configuration: analysis, chat and
// draft requests then resolve through the content-derived mock path instead
// of failing.
type RAGService struct {
	chunker   *Chunker
	embedder  Embedder
	index     VectorIndex
	generator Generator

	topK              int
	contextMaxChars   int
	minDocumentLength int
}

// RAGServiceOption is a functional option for RAGService
type RAGServiceOption func(*RAGService)

// RAGWithChunker sets the chunker
func RAGWithChunker(c *Chunker) RAGServiceOption {
	return func(s *RAGService) {
		s.chunker = c
	}
}

// RAGWithEmbedder sets the embedding provider
func RAGWithEmbedder(e Embedder) RAGServiceOption {
	return func(s *RAGService) {
		s.embedder = e
	}
}

// RAGWithVectorIndex sets the similarity-search backend
func RAGWithVectorIndex(idx VectorIndex) RAGServiceOption {
	return func(s *RAGService) {
		s.index = idx
	}
}

// RAGWithGenerator sets the generation provider; pass nil to run in
// mock-only mode
func RAGWithGenerator(g Generator) RAGServiceOption {
	return func(s *RAGService) {
		s.generator = g
	}
}

// RAGWithTopK sets the number of neighbors retrieved per search
func RAGWithTopK(k int) RAGServiceOption {
	return func(s *RAGService) {
		s.topK = k
	}
}

// RAGWithContextMaxChars sets the assembled-context character budget
func RAGWithContextMaxChars(n int) RAGServiceOption {
	return func(s *RAGService) {
		s.contextMaxChars = n
	}
}

// RAGWithMinDocumentLength sets the minimum text length for ingestion
func RAGWithMinDocumentLength(n int) RAGServiceOption {
	return func(s *RAGService) {
		s.minDocumentLength = n
	}
}

// NewRAGService creates a new RAG orchestrator
func NewRAGService(opts ...RAGServiceOption) *RAGService {
	s := &RAGService{
		topK:              10,
		contextMaxChars:   6000,
		minDocumentLength: 100,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.chunker == nil {
		s.chunker = NewChunker(1000, 200)
	}
	return s
}

// GenerationAvailable reports whether real AI generation is configured.
func (s *RAGService) GenerationAvailable() bool {
	return s.generator != nil
}

// IngestDocuments runs the ingestion pipeline over a batch of documents.
// Failures are per-document: a document that cannot be chunked, embedded or
// indexed is recorded in the report and the batch continues. The report's
// Success flag means every document was processed without loss, not merely
// that the call returned.
func (s *RAGService) IngestDocuments(ctx context.Context, docs []*models.Document) *models.IngestionReport {
	report := &models.IngestionReport{TotalDocuments: len(docs)}

	for _, doc := range docs {
		if len(strings.TrimSpace(doc.TextContent)) < s.minDocumentLength {
			log.Printf("Warning: Document %s below minimum length, skipping ingestion", doc.ID)
			report.SkippedDocuments++
			continue
		}

		chunks := s.chunker.ChunkDocument(doc)
		if len(chunks) == 0 {
			report.SkippedDocuments++
			continue
		}
		report.TotalChunks += len(chunks)

		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		vectors := s.embedder.EmbedDocuments(ctx, texts)

		entries := make([]models.IndexEntry, 0, len(chunks))
		for i, vector := range vectors {
			if vector == nil {
				continue
			}
			entries = append(entries, models.IndexEntry{
				Chunk:        chunks[i],
				Embedding:    vector,
				DocumentName: doc.Name,
				DocumentType: doc.Type,
				ModelVersion: s.embedder.ModelVersion(),
			})
		}
		if len(entries) == 0 {
			report.FailedDocuments = append(report.FailedDocuments, models.DocumentFailure{
				DocumentID: doc.ID,
				Reason:     "all chunk embeddings failed",
			})
			continue
		}

		failures, err := s.index.Upsert(ctx, entries)
		if err != nil {
			report.FailedDocuments = append(report.FailedDocuments, models.DocumentFailure{
				DocumentID: doc.ID,
				Reason:     fmt.Sprintf("index upsert failed: %v", err),
			})
			continue
		}

		succeeded := len(entries) - len(failures)
		report.SuccessfulChunks += succeeded
		if succeeded == 0 {
			report.FailedDocuments = append(report.FailedDocuments, models.DocumentFailure{
				DocumentID: doc.ID,
				Reason:     "no chunks could be indexed",
			})
			continue
		}

		report.ProcessedDocuments++
		if succeeded < len(chunks) {
			log.Printf("Warning: Document %s indexed partially: %d of %d chunks", doc.ID, succeeded, len(chunks))
		}
	}

	report.Success = len(report.FailedDocuments) == 0
	return report
}

// ReindexDocument discards a document's existing index entries and ingests
// it afresh. Chunk ids are content-derived, so unchanged text overwrites
// in place while the delete clears chunks that no longer exist.
func (s *RAGService) ReindexDocument(ctx context.Context, doc *models.Document) (*models.IngestionReport, error) {
	if err := s.index.DeleteByDocument(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("failed to clear existing index entries for %s: %w", doc.ID, err)
	}
	return s.IngestDocuments(ctx, []*models.Document{doc}), nil
}

// RemoveDocument deletes all of a document's entries from the index.
func (s *RAGService) RemoveDocument(ctx context.Context, documentID string) error {
	return s.index.DeleteByDocument(ctx, documentID)
}

// Retrieve runs one retrieval pass and tags the outcome. It never returns an
// error: a failed embedding or search degrades the outcome rather than
// aborting the surrounding pipeline.
func (s *RAGService) Retrieve(ctx context.Context, query string, filter SearchFilter) RetrievalOutcome {
	filter.ModelVersion = s.embedder.ModelVersion()

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		log.Printf("Warning: Query embedding failed, proceeding without context: %v", err)
		return RetrievalOutcome{Status: RetrievalDegraded, Reason: fmt.Sprintf("query embedding failed: %v", err)}
	}

	results, err := s.index.Search(ctx, vector, s.topK, filter)
	if err != nil {
		log.Printf("Warning: Vector search failed, proceeding without context: %v", err)
		return RetrievalOutcome{Status: RetrievalDegraded, Reason: fmt.Sprintf("vector search failed: %v", err)}
	}
	if len(results) == 0 {
		return RetrievalOutcome{Status: RetrievalEmpty}
	}
	return RetrievalOutcome{Status: RetrievalOK, Results: results}
}

// AnalyzeDocument runs the deep-dive pipeline for one document. It always
// returns a schema-valid result; provider failures route through the
// content-derived mock or the parse fallback with Degraded set.
func (s *RAGService) AnalyzeDocument(ctx context.Context, doc *models.Document) *models.AnalysisResult {
	query := fmt.Sprintf("compliance requirements analysis %s %s", doc.Name, truncateDoc(doc.TextContent, 500))
	outcome := s.Retrieve(ctx, query, SearchFilter{
		DocumentTypes: []models.DocumentType{models.DocumentTypeRegulatory, models.DocumentTypeAustrac},
	})
	assembled := AssembleContext(outcome.Results, s.contextMaxChars)

	var result *models.AnalysisResult
	mocked := false
	switch {
	case s.generator == nil:
		log.Printf("Warning: Generation provider not available, falling back to enhanced mock for %s", doc.Name)
		result = MockAnalysis(doc)
		mocked = true
	default:
		prompt := BuildAnalysisPrompt(doc.Name, doc.TextContent, assembled.Text)
		raw, err := s.generator.Generate(ctx, prompt)
		if err != nil {
			log.Printf("Warning: Generation failed for %s, falling back to enhanced mock: %v", doc.Name, err)
			result = MockAnalysis(doc)
			result.DegradedReason = fmt.Sprintf("generation failed: %v", err)
			mocked = true
		} else {
			result = ParseAnalysisResponse(raw, doc.Name)
		}
	}

	s.finalizeAnalysis(result, models.AnalysisTypeDeepDive, fmt.Sprintf("Deep Dive: %s", doc.Name), mocked, assembled.Sources, outcome)
	return result
}

// targetQueryMap maps gap-review regulatory target ids to retrieval queries.
var targetQueryMap = map[string]string{
	"customer-identification": "customer identification verification requirements AUSTRAC",
	"transaction-monitoring":  "transaction monitoring suspicious activity reporting",
	"record-keeping":          "record keeping requirements retention periods",
	"risk-assessment":         "risk assessment customer due diligence",
	"aml-compliance":          "anti money laundering compliance obligations",
	"sanctions-screening":     "sanctions screening requirements prohibited persons",
	"reporting-obligations":   "regulatory reporting obligations AUSTRAC ASIC",
}

var targetTitleCaser = cases.Title(language.English)

// targetQuery resolves a regulatory target id to its search query. Unmapped
// ids are title-cased into a readable query ("custom-area" becomes
// "Custom Area").
func targetQuery(targetID string) string {
	if q, ok := targetQueryMap[targetID]; ok {
		return q
	}
	return targetTitleCaser.String(strings.ReplaceAll(targetID, "-", " "))
}

// AnalyzeGap runs the gap-review pipeline: company documents are compared
// against regulatory context retrieved per target id. Like AnalyzeDocument,
// it always resolves to a schema-valid result.
func (s *RAGService) AnalyzeGap(ctx context.Context, companyDocs []*models.Document, targetIDs []string) *models.AnalysisResult {
	var regulatory strings.Builder
	var sources []models.RetrievalResult
	degradedRetrieval := false

	for _, targetID := range targetIDs {
		outcome := s.Retrieve(ctx, targetQuery(targetID), SearchFilter{
			DocumentTypes: []models.DocumentType{models.DocumentTypeRegulatory, models.DocumentTypeAustrac},
		})
		if outcome.Status == RetrievalDegraded {
			degradedRetrieval = true
			continue
		}
		assembled := AssembleContext(outcome.Results, s.contextMaxChars/max(len(targetIDs), 1))
		regulatory.WriteString(fmt.Sprintf("**Regulatory Area: %s**\n%s\n\n", targetID, assembled.Text))
		sources = append(sources, assembled.Sources...)
	}

	regulatoryContext := strings.TrimSpace(regulatory.String())
	if regulatoryContext == "" {
		regulatoryContext = "General AUSTRAC and ASIC compliance requirements apply"
	}

	var result *models.AnalysisResult
	mocked := false
	switch {
	case s.generator == nil:
		log.Printf("Warning: Generation provider not available, falling back to enhanced mock for gap review")
		result = mockGapReview(companyDocs)
		mocked = true
	default:
		prompt := BuildGapReviewPrompt(companyDocs, regulatoryContext)
		raw, err := s.generator.Generate(ctx, prompt)
		if err != nil {
			log.Printf("Warning: Gap review generation failed, falling back to enhanced mock: %v", err)
			result = mockGapReview(companyDocs)
			result.DegradedReason = fmt.Sprintf("generation failed: %v", err)
			mocked = true
		} else {
			result = ParseAnalysisResponse(raw, gapReviewTitle(companyDocs))
		}
	}

	if degradedRetrieval && !result.Degraded {
		result.Degraded = true
		result.DegradedReason = "regulatory context retrieval partially failed"
	}
	s.finalizeAnalysis(result, models.AnalysisTypeGapReview, "Gap Review", mocked, sources, RetrievalOutcome{})
	return result
}

// mockGapReview reuses the enhanced mock over the concatenated company
// documents so keyword-derived suggestions still reflect their content.
func mockGapReview(companyDocs []*models.Document) *models.AnalysisResult {
	var combined strings.Builder
	for _, doc := range companyDocs {
		combined.WriteString(doc.TextContent)
		combined.WriteString("\n")
	}
	synthetic := &models.Document{Name: gapReviewTitle(companyDocs), TextContent: combined.String()}
	return MockAnalysis(synthetic)
}

func gapReviewTitle(companyDocs []*models.Document) string {
	names := make([]string, 0, len(companyDocs))
	for _, doc := range companyDocs {
		names = append(names, doc.Name)
	}
	return strings.Join(names, ", ")
}

// finalizeAnalysis stamps identity fields onto a pipeline result. Only
// results produced by the mock path carry the name marker; a degraded
// retrieval with real generation does not.
func (s *RAGService) finalizeAnalysis(result *models.AnalysisResult, analysisType models.AnalysisType, baseName string, mocked bool, sources []models.RetrievalResult, outcome RetrievalOutcome) {
	now := time.Now().UTC()
	result.ID = uuid.NewString()
	result.Type = analysisType
	result.Timestamp = now
	result.Name = fmt.Sprintf("%s - %s", baseName, now.Format("2006-01-02"))
	if mocked {
		result.Name += " (Enhanced Mock)"
	}
	if sources == nil {
		sources = []models.RetrievalResult{}
	}
	result.GroundingSources = sources
	if outcome.Status == RetrievalDegraded && !result.Degraded {
		result.Degraded = true
		result.DegradedReason = outcome.Reason
	}
}

// Chat answers a conversational question grounded on retrieved chunks. Only
// the trailing window of the history reaches the prompt.
func (s *RAGService) Chat(ctx context.Context, message string, history []models.ChatMessage) *models.ChatResult {
	outcome := s.Retrieve(ctx, message, SearchFilter{})
	assembled := AssembleContext(outcome.Results, s.contextMaxChars)

	if s.generator == nil {
		return &models.ChatResult{
			Response: "Chat service is temporarily unavailable. Please check the AI generation configuration.",
			Sources:  assembled.Sources,
			Degraded: true,
		}
	}

	prompt := BuildChatPrompt(message, history, assembled.Text)
	response, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		log.Printf("Warning: Chat generation failed: %v", err)
		return &models.ChatResult{
			Response: "I'm having trouble processing your request right now. Please try again shortly.",
			Sources:  assembled.Sources,
			Degraded: true,
		}
	}

	return &models.ChatResult{
		Response: response,
		Sources:  assembled.Sources,
		Degraded: outcome.Status == RetrievalDegraded,
	}
}

// GenerateDraft rewrites a document applying one suggested change. The
// returned flag reports whether the mock path produced the draft.
func (s *RAGService) GenerateDraft(ctx context.Context, doc *models.Document, change models.SuggestedChange) (string, bool) {
	if s.generator == nil {
		log.Printf("Warning: Generation provider not available, producing mock draft for %s", doc.Name)
		return MockDraft(doc, change), true
	}

	prompt := BuildDraftPrompt(doc, change)
	draft, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		log.Printf("Warning: Draft generation failed for %s, producing mock draft: %v", doc.Name, err)
		return MockDraft(doc, change), true
	}
	return draft, false
}

// HealthCheck probes each backing component. It always returns a report;
// component failures mark the report degraded or unhealthy instead of
// surfacing as errors.
func (s *RAGService) HealthCheck(ctx context.Context) *models.HealthReport {
	components := map[string]models.ComponentHealth{}

	if _, err := s.embedder.EmbedQuery(ctx, "health check"); err != nil {
		components["embedding"] = models.ComponentHealth{
			Status: models.HealthUnhealthy,
			Detail: err.Error(),
		}
	} else {
		components["embedding"] = models.ComponentHealth{Status: models.HealthHealthy, Healthy: true}
	}

	if stats, err := s.index.Stats(ctx); err != nil {
		components["vector_index"] = models.ComponentHealth{
			Status: models.HealthUnhealthy,
			Detail: err.Error(),
		}
	} else {
		components["vector_index"] = models.ComponentHealth{
			Status:  models.HealthHealthy,
			Detail:  fmt.Sprintf("%d chunks across %d documents", stats.TotalChunks, stats.TotalDocuments),
			Healthy: true,
		}
	}

	if s.generator == nil {
		components["generation"] = models.ComponentHealth{
			Status: models.HealthDegraded,
			Detail: "generation provider not configured, mock responses active",
		}
	} else {
		components["generation"] = models.ComponentHealth{Status: models.HealthHealthy, Healthy: true}
	}

	report := &models.HealthReport{
		Status:     models.HealthHealthy,
		Timestamp:  time.Now().UTC(),
		Components: components,
	}
	for _, c := range components {
		switch c.Status {
		case models.HealthUnhealthy:
			report.Status = models.HealthUnhealthy
		case models.HealthDegraded:
			if report.Status == models.HealthHealthy {
				report.Status = models.HealthDegraded
			}
		}
	}
	return report
}

// IndexStats exposes index statistics for the stats endpoint.
func (s *RAGService) IndexStats(ctx context.Context) (*models.IndexStats, error) {
	return s.index.Stats(ctx)
}
