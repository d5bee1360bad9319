package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"movie-search-platform/internal/ai"
	"movie-search-platform/internal/chroma"
	"movie-search-platform/internal/config"
	"movie-search-platform/internal/logger"
	"movie-search-platform/internal/telemetry"
	"movie-search-platform/middleware"
	"movie-search-platform/routes"
	"movie-search-platform/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg.GinMode == "debug")

	// Tracing is optional; without an endpoint spans are no-ops
	if cfg.OTLPEndpoint != "" {
		shutdown, err := telemetry.InitTracer("movie-search-platform", cfg.OTLPEndpoint)
		if err != nil {
			log.Fatal("Failed to init tracer:", err)
		}
		defer shutdown()
	}
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to init metrics:", err)
	}

	// Connect to the vector store
	chromaClient := chroma.NewClient(chroma.Config{Host: cfg.ChromaHost, Port: cfg.ChromaPort})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	collection, err := chromaClient.GetOrCreateCollection(ctx, cfg.ChromaCollection)
	cancel()
	if err != nil {
		log.Fatal("Failed to connect to ChromaDB:", err)
	}

	// Redis backs the response cache and rate limiting; losing it degrades
	// both instead of failing startup
	var responseCache *services.ResponseCache
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, response caching disabled", "error", err)
	} else {
		responseCache = services.NewResponseCache(
			services.NewRedisStore(rdb),
			time.Duration(cfg.CacheTTL)*time.Second,
		)
	}

	// Model clients are shared across all in-flight requests
	embedder := ai.NewGeminiEmbedder(cfg.GeminiAPIKey, cfg.EmbeddingsModel, cfg.VectorDimensions)
	defer embedder.Close()

	completer, err := ai.NewCompletionClient(context.Background(), ai.CompletionConfig{
		APIKey:      cfg.GeminiAPIKey,
		Model:       cfg.CompletionModel,
		Temperature: cfg.CompletionTemperature,
		MaxTokens:   cfg.CompletionMaxTokens,
		RPM:         cfg.CompletionRPM,
	})
	if err != nil {
		log.Fatal("Failed to initialize completion client:", err)
	}
	defer completer.Close()

	searchService := services.NewSearchService(embedder, collection)
	agentService := services.NewAgentService(searchService, completer)

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.MetricsMiddleware(metrics))
	if rdb != nil {
		router.Use(middleware.RateLimitMiddleware(rdb, cfg))
	}

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	routes.SetupMovieRoutes(router, searchService, agentService, responseCache, metrics)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
