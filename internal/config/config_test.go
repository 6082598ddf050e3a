package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "RATE_LIMIT_PER_MINUTE", "OPENAI_MODEL", "READER_BASE_URL", "ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "8787" {
		t.Errorf("expected default port, got %q", cfg.Port)
	}
	if cfg.RequestsPerMinute != 30 {
		t.Errorf("expected default rate limit 30, got %d", cfg.RequestsPerMinute)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("expected default model, got %q", cfg.OpenAIModel)
	}
	if cfg.ReaderBaseURL != "https://r.jina.ai" {
		t.Errorf("expected default reader base, got %q", cfg.ReaderBaseURL)
	}
	if cfg.AllowedOrigins != nil {
		t.Errorf("expected no allow-list by default, got %v", cfg.AllowedOrigins)
	}
}

func TestLoad_RateLimitFallsBackWhenNonNumeric(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "lots")

	if cfg := Load(); cfg.RequestsPerMinute != 30 {
		t.Fatalf("non-numeric limit should fall back to 30, got %d", cfg.RequestsPerMinute)
	}

	t.Setenv("RATE_LIMIT_PER_MINUTE", "-5")
	if cfg := Load(); cfg.RequestsPerMinute != 30 {
		t.Fatalf("non-positive limit should fall back to 30, got %d", cfg.RequestsPerMinute)
	}

	t.Setenv("RATE_LIMIT_PER_MINUTE", "120")
	if cfg := Load(); cfg.RequestsPerMinute != 120 {
		t.Fatalf("expected configured limit, got %d", cfg.RequestsPerMinute)
	}
}

func TestLoad_SplitsOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,,")

	cfg := Load()
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.AllowedOrigins)
	}
	if cfg.AllowedOrigins[0] != "https://a.example.com" || cfg.AllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("origins not trimmed: %v", cfg.AllowedOrigins)
	}
}
