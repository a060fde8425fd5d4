package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	RAG     RAGConfig
	Chat    ChatConfig
	Events  EventsConfig
	Tracing TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

// RAGConfig points at the external retrieval/answering backend.
type RAGConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	MaxUploadBytes int
}

type ChatConfig struct {
	HistoryWindow int
	// RollbackHistoryOnFailure also drops the user history turn when the
	// backend round-trip fails. Off by default to keep the message-only
	// rollback the UI has always had.
	RollbackHistoryOnFailure bool
	// RestoreSessions honors the mirrored snapshot at startup instead of
	// discarding it.
	RestoreSessions bool
	SnapshotTTL     time.Duration
}

type EventsConfig struct {
	NatsEnabled   bool
	MirrorEnabled bool
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/ragchat.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		RAG: RAGConfig{
			BaseURL:        getEnv("RAG_API_BASE_URL", "http://localhost:8000"),
			RequestTimeout: getEnvAsDuration("RAG_API_TIMEOUT", 120*time.Second),
			MaxUploadBytes: getEnvAsInt("RAG_MAX_UPLOAD_BYTES", 20*1024*1024),
		},
		Chat: ChatConfig{
			HistoryWindow:            getEnvAsInt("CHAT_HISTORY_WINDOW", 6),
			RollbackHistoryOnFailure: getEnvAsBool("CHAT_ROLLBACK_HISTORY_ON_FAILURE", false),
			RestoreSessions:          getEnvAsBool("CHAT_RESTORE_SESSIONS", false),
			SnapshotTTL:              getEnvAsDuration("CHAT_SNAPSHOT_TTL", 24*time.Hour),
		},
		Events: EventsConfig{
			NatsEnabled:   getEnvAsBool("NATS_ENABLED", false),
			MirrorEnabled: getEnvAsBool("SNAPSHOT_MIRROR_ENABLED", true),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
