package main

import (
	"context"
	"flag"
	"log"
	"time"

	"movie-search-platform/internal/ai"
	"movie-search-platform/internal/chroma"
	"movie-search-platform/internal/config"
	"movie-search-platform/internal/database"
	"movie-search-platform/internal/logger"
	"movie-search-platform/internal/queue"
	"movie-search-platform/services"

	"github.com/hibiken/asynq"
)

func main() {
	var (
		dir     = flag.String("dir", "", "movies directory (defaults to MOVIES_DIR)")
		enqueue = flag.Bool("enqueue", false, "enqueue a scan for the worker instead of ingesting inline")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg.GinMode == "debug")

	moviesDir := *dir
	if moviesDir == "" {
		moviesDir = cfg.MoviesDir
	}

	if *enqueue {
		enqueueScan(cfg, moviesDir)
		return
	}

	chromaClient := chroma.NewClient(chroma.Config{Host: cfg.ChromaHost, Port: cfg.ChromaPort})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	collection, err := chromaClient.GetOrCreateCollection(ctx, cfg.ChromaCollection)
	cancel()
	if err != nil {
		log.Fatal("Failed to connect to ChromaDB:", err)
	}

	// Report persistence is optional; runs proceed without it
	var reports services.ReportStore
	if cfg.MongoURI != "" {
		mongoClient, err := config.ConnectMongoDB(cfg)
		if err != nil {
			logger.Warn("MongoDB unavailable, reports will not be persisted", "error", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				mongoClient.Disconnect(ctx)
			}()
			reports = database.NewReportStore(mongoClient, cfg.DBName)
		}
	}

	embedder := ai.NewGeminiEmbedder(cfg.GeminiAPIKey, cfg.EmbeddingsModel, cfg.VectorDimensions)
	defer embedder.Close()

	ingestor := services.NewIngestor(
		services.NewChunker(cfg.MaxChunkSize, cfg.ChunkOverlap),
		embedder,
		services.NewIndexer(collection),
		reports,
	)

	report, err := ingestor.Run(context.Background(), moviesDir)
	if err != nil {
		log.Fatal("Ingestion run failed:", err)
	}
	logger.Info("ingestion run complete",
		"run_id", report.RunID,
		"indexed", report.Indexed,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
}

func enqueueScan(cfg *config.Config, moviesDir string) {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer client.Close()

	task, err := queue.NewScanLibraryTask(moviesDir)
	if err != nil {
		log.Fatal("Failed to build scan task:", err)
	}
	info, err := client.Enqueue(task)
	if err != nil {
		log.Fatal("Failed to enqueue scan task:", err)
	}
	logger.Info("scan enqueued", "task_id", info.ID, "dir", moviesDir)
}
