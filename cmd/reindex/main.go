package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"compliance-assistant-backend/config"
	"compliance-assistant-backend/models"
	"compliance-assistant-backend/repository"
	"compliance-assistant-backend/service"
)

// Bulk-loads a directory of plain-text compliance documents into the
// registry and the vector index. Intended for seeding regulatory reference
// material; uploaded documents go through the HTTP API instead.
func main() {
	dir := flag.String("dir", "./reference_docs", "directory of .txt/.md documents to ingest")
	docTypeFlag := flag.String("type", "regulatory", "document type: company, regulatory or austrac")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	docType := models.DocumentType(*docTypeFlag)
	if !models.ValidDocumentType(docType) {
		log.Fatalf("Invalid document type %q: must be company, regulatory or austrac", *docTypeFlag)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	var tableExists bool
	err = pool.QueryRow(ctx, "SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = 'document_chunks')").Scan(&tableExists)
	if err != nil {
		log.Fatalf("Failed to check table existence: %v", err)
	}
	if !tableExists {
		log.Fatal("document_chunks table does not exist. Please run: go run cmd/create-schema/main.go")
	}

	geminiClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		log.Fatalf("Failed to initialize Gemini client: %v", err)
	}

	docRepo := repository.NewDocumentRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool, cfg.EmbeddingDimensions)
	embedder := service.NewGeminiEmbedder(geminiClient, cfg.EmbeddingModel, cfg.EmbeddingDimensions)

	ragService := service.NewRAGService(
		service.RAGWithChunker(service.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)),
		service.RAGWithEmbedder(embedder),
		service.RAGWithVectorIndex(chunkRepo),
		service.RAGWithMinDocumentLength(cfg.MinDocumentLength),
	)

	entries, err := os.ReadDir(*dir)
	if err != nil {
		log.Fatalf("Failed to read directory %s: %v", *dir, err)
	}

	var docs []*models.Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			log.Printf("Skipping %s: unsupported extension", entry.Name())
			continue
		}

		path := filepath.Join(*dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Warning: Failed to read %s: %v", path, err)
			continue
		}

		doc := &models.Document{
			ID:           models.NewDocumentID(),
			Name:         entry.Name(),
			Type:         docType,
			TextContent:  string(data),
			Size:         int64(len(data)),
			LastModified: time.Now().UTC(),
		}
		if err := docRepo.Create(ctx, doc); err != nil {
			log.Printf("Warning: Failed to register %s: %v", entry.Name(), err)
			continue
		}
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		log.Fatal("No documents to ingest")
	}

	log.Printf("Ingesting %d documents from %s as type %s", len(docs), *dir, docType)
	report := ragService.IngestDocuments(ctx, docs)

	failed := make(map[string]string, len(report.FailedDocuments))
	for _, f := range report.FailedDocuments {
		failed[f.DocumentID] = f.Reason
	}
	for _, doc := range docs {
		if reason, ok := failed[doc.ID]; ok {
			log.Printf("✗ %s: %s", doc.Name, reason)
			continue
		}
		if err := docRepo.SetRAGProcessed(ctx, doc.ID, true); err != nil {
			log.Printf("Warning: Failed to flag %s as processed: %v", doc.Name, err)
		}
	}

	fmt.Printf("\nIngestion complete: %d processed, %d skipped, %d failed, %d/%d chunks indexed\n",
		report.ProcessedDocuments, report.SkippedDocuments, len(report.FailedDocuments),
		report.SuccessfulChunks, report.TotalChunks)
	if !report.Success {
		os.Exit(1)
	}
}
