package main

import (
	"context"
	"log"
	"time"

	"movie-search-platform/internal/ai"
	"movie-search-platform/internal/chroma"
	"movie-search-platform/internal/config"
	"movie-search-platform/internal/database"
	"movie-search-platform/internal/logger"
	"movie-search-platform/internal/queue"
	"movie-search-platform/services"

	"github.com/go-co-op/gocron"
	"github.com/hibiken/asynq"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg.GinMode == "debug")

	chromaClient := chroma.NewClient(chroma.Config{Host: cfg.ChromaHost, Port: cfg.ChromaPort})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	collection, err := chromaClient.GetOrCreateCollection(ctx, cfg.ChromaCollection)
	cancel()
	if err != nil {
		log.Fatal("Failed to connect to ChromaDB:", err)
	}

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

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	client := asynq.NewClient(redisOpt)
	defer client.Close()

	// Documents are independent and keys are file-unique, so tasks can run
	// concurrently without interleaving one document's delete and insert
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.IngestConcurrency,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(ingestor, client)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIndexMovie, processor.HandleIndexMovie)
	mux.HandleFunc(queue.TaskScanLibrary, processor.HandleScanLibrary)

	// Optional scheduled library re-scan
	if cfg.IngestCron != "" {
		scheduler := gocron.NewScheduler(time.UTC)
		_, err := scheduler.Cron(cfg.IngestCron).Do(func() {
			task, err := queue.NewScanLibraryTask(cfg.MoviesDir)
			if err != nil {
				logger.Error("failed to build scan task", "error", err)
				return
			}
			if _, err := client.Enqueue(task); err != nil {
				logger.Error("failed to enqueue scheduled scan", "error", err)
			}
		})
		if err != nil {
			log.Fatal("Failed to schedule library scan:", err)
		}
		scheduler.StartAsync()
		defer scheduler.Stop()
		logger.Info("scheduled library scan", "cron", cfg.IngestCron, "dir", cfg.MoviesDir)
	}

	logger.Info("starting ingest worker",
		"concurrency", cfg.IngestConcurrency,
		"redis", cfg.RedisURL,
	)

	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
