package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port        string
	Environment string

	// OpenAI completion API
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Identity provider (Supabase)
	SupabaseURL     string
	SupabaseAnonKey string

	// Reader relay used for article body extraction
	ReaderBaseURL string

	// Comma-separated in ALLOWED_ORIGINS; empty means allow all
	AllowedOrigins []string

	RequestsPerMinute int

	// Optional shared rate-limit backend
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Optional request-log storage
	DatabaseURL string
}

func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "8787"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		SupabaseURL:       os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:   os.Getenv("SUPABASE_ANON_KEY"),
		ReaderBaseURL:     getEnv("READER_BASE_URL", "https://r.jina.ai"),
		AllowedOrigins:    splitOrigins(os.Getenv("ALLOWED_ORIGINS")),
		RequestsPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}

	var origins []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			origins = append(origins, part)
		}
	}
	return origins
}
