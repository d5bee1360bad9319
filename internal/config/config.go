package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Document source
	MoviesDir string

	// Chunking
	MaxChunkSize int
	ChunkOverlap int

	// ChromaDB
	ChromaHost       string
	ChromaPort       int
	ChromaCollection string
	VectorDimensions int

	// Gemini
	GeminiAPIKey          string
	EmbeddingsModel       string
	CompletionModel       string
	CompletionTemperature float64
	CompletionMaxTokens   int
	CompletionRPM         int

	// Redis
	RedisURL      string
	RedisPassword string
	RedisDB       int
	CacheTTL      int

	// Rate limiting
	RateLimitReqs   int
	RateLimitWindow int

	// MongoDB (ingest report persistence, optional)
	MongoURI string
	DBName   string

	// Worker
	IngestConcurrency int
	IngestCron        string

	// Telemetry
	OTLPEndpoint string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		MoviesDir: getEnv("MOVIES_DIR", "./json-data/movies"),

		MaxChunkSize: getEnvInt("MAX_CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),

		ChromaHost:       getEnv("CHROMADB_HOST", "localhost"),
		ChromaPort:       getEnvInt("CHROMADB_PORT", 8010),
		ChromaCollection: getEnv("CHROMADB_COLLECTION", "movies"),
		VectorDimensions: getEnvInt("VECTOR_DIM", 768),

		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		EmbeddingsModel:       getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		CompletionModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		CompletionTemperature: getEnvFloat64("GEMINI_TEMPERATURE", 0.7),
		CompletionMaxTokens:   getEnvInt("GEMINI_MAX_TOKENS", 3000),
		CompletionRPM:         getEnvInt("GEMINI_RPM", 10),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvInt("REDIS_CACHE_TTL", 600),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		MongoURI: getEnv("MONGO_URI", ""),
		DBName:   getEnv("DB_NAME", "movie_search"),

		IngestConcurrency: getEnvInt("INGEST_CONCURRENCY", 4),
		IngestCron:        getEnv("INGEST_CRON", ""),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}
	if cfg.ChunkOverlap >= cfg.MaxChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than MAX_CHUNK_SIZE (%d)",
			cfg.ChunkOverlap, cfg.MaxChunkSize)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
