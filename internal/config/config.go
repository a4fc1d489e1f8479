package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	AllowedOrigin string
	// Analytics backends (used when no backends file is present)
	AWSEndpoint     string
	AWSProvider     string
	OCIEndpoint     string
	BackendsFile    string
	DefaultProvider string
	// Single outstanding call per session; this bounds how long it may run
	BackendTimeout time.Duration
	// Transcript persistence
	DatabaseURL   string
	TranscriptDir string
	// In-memory transcript cap per session (0 = unlimited)
	MaxTranscriptMessages int
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Port:                  getEnvDefault("PORT", "8080"),
		AllowedOrigin:         getEnvDefault("ALLOWED_ORIGIN", "*"),
		AWSEndpoint:           os.Getenv("AWS_CHAT_ENDPOINT"),
		AWSProvider:           getEnvDefault("AWS_CHAT_PROVIDER", "bedrock"),
		OCIEndpoint:           os.Getenv("OCI_CHAT_ENDPOINT"),
		BackendsFile:          getEnvDefault("BACKENDS_FILE", "config/backends.yaml"),
		DefaultProvider:       getEnvDefault("DEFAULT_PROVIDER", "aws"),
		BackendTimeout:        getEnvDurationDefault("BACKEND_TIMEOUT_SECONDS", 60*time.Second),
		DatabaseURL:           os.Getenv("DB_URL"),
		TranscriptDir:         getEnvDefault("TRANSCRIPT_DIR", "data/transcripts"),
		MaxTranscriptMessages: getEnvIntDefault("MAX_TRANSCRIPT_MESSAGES", 200),
	}
	if cfg.AWSEndpoint == "" && cfg.OCIEndpoint == "" {
		log.Println("warning: no backend endpoints configured in environment; relying on " + cfg.BackendsFile)
	}
	return cfg
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
		log.Printf("warning: invalid integer for %s: %q, using default %d", key, v, def)
	}
	return def
}

func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
		log.Printf("warning: invalid duration for %s: %q, using default %s", key, v, def)
	}
	return def
}
