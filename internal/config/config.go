package config

import (
	"log"
	"os"
	"time"
)

type Config struct {
	Port string

	GoogleAPIKey string
	ModelName    string

	DBFile         string
	StorageBackend string // "json" or "memory"
	UseMockLLM     bool   // true = canned backend, no API key needed

	// ReplyTimeout bounds one streamed assistant turn; zero disables the
	// bound.
	ReplyTimeout time.Duration
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "TRUE"
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("ignoring invalid %s=%q: %v", key, v, err)
		return def
	}
	return d
}

// Load reads all env vars and builds the config.
func Load() *Config {
	cfg := &Config{
		Port: getEnv("COMMA_PORT", "8080"),

		GoogleAPIKey: getEnv("GOOGLE_API_KEY", ""),
		ModelName:    getEnv("COMMA_MODEL_NAME", "gemini-2.5-flash"),

		DBFile:         getEnv("COMMA_DB_FILE", "users_data.json"),
		StorageBackend: getEnv("COMMA_STORAGE_BACKEND", "json"),
		UseMockLLM:     getBoolEnv("COMMA_USE_MOCK_LLM", false),

		ReplyTimeout: getDurationEnv("COMMA_REPLY_TIMEOUT", 60*time.Second),
	}

	if !cfg.UseMockLLM && cfg.GoogleAPIKey == "" {
		log.Fatal("GOOGLE_API_KEY must be set (or COMMA_USE_MOCK_LLM=1)")
	}

	return cfg
}
