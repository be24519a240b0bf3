package main

import (
	"context"
	"log"

	"compliance-assistant-backend/config"
	"compliance-assistant-backend/handlers"
	"compliance-assistant-backend/repository"
	"compliance-assistant-backend/service"
	"compliance-assistant-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

func main() {
	// Load .env file from project root (relative to cmd/server/)
	// Try current directory first, then project root
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	// Initialize database connection
	db, err := initPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to initialize Postgres: ", err)
	}
	defer db.Close()

	// Initialize storage
	docStorage, err := storage.NewStorageFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	log.Println("Storage initialized")

	// Initialize repositories
	docRepo := repository.NewDocumentRepository(db)
	chunkRepo := repository.NewChunkRepository(db, cfg.EmbeddingDimensions)

	// Initialize Gemini client
	geminiClient, err := initGemini(cfg.GeminiAPIKey)
	if err != nil {
		log.Fatal("Failed to initialize Gemini: ", err)
	}

	embedder := service.NewGeminiEmbedder(geminiClient, cfg.EmbeddingModel, cfg.EmbeddingDimensions)

	// Disabled generation leaves the service in mock mode rather than
	// refusing to start: ingestion and retrieval still work.
	var generator service.Generator
	if cfg.GenerationModel != "" && !cfg.DisableGeneration {
		generator = service.NewGeminiGenerator(geminiClient, cfg.GenerationModel)
	} else {
		log.Println("Warning: Generation disabled, running with mock responses")
	}

	ragService := service.NewRAGService(
		service.RAGWithChunker(service.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)),
		service.RAGWithEmbedder(embedder),
		service.RAGWithVectorIndex(chunkRepo),
		service.RAGWithGenerator(generator),
		service.RAGWithTopK(cfg.RetrievalTopK),
		service.RAGWithContextMaxChars(cfg.ContextMaxChars),
		service.RAGWithMinDocumentLength(cfg.MinDocumentLength),
	)

	// Initialize handlers
	documentHandler := handlers.NewDocumentHandler(docRepo, ragService, docStorage, cfg)
	analysisHandler := handlers.NewAnalysisHandler(docRepo, ragService)
	chatHandler := handlers.NewChatHandler(ragService)
	healthHandler := handlers.NewHealthHandler(ragService)

	// Setup Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", healthHandler.Liveness)

	// API routes
	api := r.Group("/api")
	{
		// Document endpoints
		api.POST("/documents/upload", documentHandler.UploadDocument)
		api.GET("/documents", documentHandler.ListDocuments)
		api.GET("/documents/:id", documentHandler.GetDocument)
		api.GET("/documents/:id/download", documentHandler.DownloadDocument)
		api.DELETE("/documents/:id", documentHandler.DeleteDocument)
		api.POST("/documents/:id/reindex", documentHandler.ReindexDocument)
		api.POST("/documents/reindex", documentHandler.ReindexAll)

		// Analysis endpoints
		api.POST("/analysis/deep-dive", analysisHandler.DeepDive)
		api.POST("/analysis/gap-review", analysisHandler.GapReview)
		api.POST("/analysis/draft", analysisHandler.GenerateDraft)

		// Chat endpoint
		api.POST("/chat", chatHandler.Chat)

		// RAG health and stats
		api.GET("/rag/health", healthHandler.RAGHealth)
		api.GET("/rag/stats", healthHandler.IndexStats)
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

func initPostgres(connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	// Enable pgvector extension
	ctx := context.Background()
	_, err = pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		log.Printf("Warning: Failed to create pgvector extension: %v", err)
		log.Println("This may be normal if extension is already installed or requires superuser privileges")
	} else {
		log.Println("pgvector extension enabled")
	}

	log.Println("Postgres connection established with pgvector support")
	return pool, nil
}

func initGemini(apiKey string) (*genai.Client, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	log.Println("Gemini client initialized")
	return client, nil
}
