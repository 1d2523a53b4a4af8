package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	APIHost string
	APIPort string
	GinMode string

	MongoURI string
	DBName   string

	JWTSecret      string
	TokenExpireMin int
	BcryptCost     int

	// Chroma vector store
	ChromaHost       string
	ChromaPort       int
	ChromaCollection string

	// OpenAI
	OpenAIAPIKey   string
	EmbeddingModel string
	ChatModel      string

	// Chat / RAG tuning
	ChatTemperature       float64
	ChatTopKChunks        int
	ChatMaxContextLength  int
	ChatDistanceThreshold float64

	// Job / extraction tuning
	JobMaxWorkers     int
	ChunkDelayMs      int
	PDFProcessDelayMs int
	PDFChunkSize      int

	CORSOrigins []string

	// Optional OTLP endpoint, tracing disabled when empty
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
		APIHost: getEnv("API_HOST", "0.0.0.0"),
		APIPort: getEnv("API_PORT", "8000"),
		GinMode: getEnv("GIN_MODE", "debug"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:   getEnv("MONGO_DB", "editais"),

		JWTSecret:      getEnv("JWT_SECRET", ""),
		TokenExpireMin: getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 1440),
		BcryptCost:     getEnvInt("BCRYPT_COST", 12),

		ChromaHost:       getEnv("CHROMA_HOST", "localhost"),
		ChromaPort:       getEnvInt("CHROMA_PORT", 8001),
		ChromaCollection: getEnv("CHROMA_COLLECTION", "editais_chunks"),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		ChatModel:      getEnv("CHAT_MODEL", "gpt-4o-mini"),

		ChatTemperature:       getEnvFloat64("CHAT_TEMPERATURE", 0.3),
		ChatTopKChunks:        getEnvInt("CHAT_TOP_K_CHUNKS", 5),
		ChatMaxContextLength:  getEnvInt("CHAT_MAX_CONTEXT_LENGTH", 4000),
		ChatDistanceThreshold: getEnvFloat64("CHAT_DISTANCE_THRESHOLD", 1.5),

		JobMaxWorkers:     getEnvInt("JOB_MAX_WORKERS", 2),
		ChunkDelayMs:      getEnvInt("JOB_CHUNK_DELAY_MS", 500),
		PDFProcessDelayMs: getEnvInt("JOB_PDF_PROCESSING_DELAY_MS", 1000),
		PDFChunkSize:      getEnvInt("PDF_CHUNK_SIZE", 3000),

		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"), ","),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
	}

	// Validate required fields
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required - set it in .env file")
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required - set it in .env file")
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
