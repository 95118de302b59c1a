package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envKeys = []string{
	"CONFIG_FILE", "PORT", "DATABASE_URL", "REDIS_URL", "LOG_LEVEL", "LLM_PROVIDER", "LLM_MODEL",
	"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "COHERE_API_KEY",
	"MAX_CONTENT_LENGTH", "REQUEST_TIMEOUT", "RATE_LIMIT_PER_MINUTE",
}

func clearEnv(t *testing.T) {
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8000" || cfg.LogLevel != "info" || cfg.LLMProvider != "openai" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.MaxContentLength != 50000 || cfg.RequestTimeout != 120*time.Second || cfg.RateLimit != 60 {
		t.Fatalf("unexpected numeric defaults %+v", cfg)
	}
	if cfg.APIKey() != "" {
		t.Fatalf("expected no credential")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("MAX_CONTENT_LENGTH", "1000")
	t.Setenv("REQUEST_TIMEOUT", "45")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey() != "sk-ant" {
		t.Fatalf("expected anthropic key, got %q", cfg.APIKey())
	}
	if cfg.MaxContentLength != 1000 || cfg.RequestTimeout != 45*time.Second {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if cfg.RateLimit != 60 {
		t.Fatalf("expected invalid value to keep default, got %d", cfg.RateLimit)
	}

	t.Setenv("REQUEST_TIMEOUT", "2m")
	if cfg, _ := Load(); cfg.RequestTimeout != 2*time.Minute {
		t.Fatalf("expected duration syntax, got %s", cfg.RequestTimeout)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "port: \"9000\"\nllm_provider: cohere\ncohere_api_key: co-key\nrequest_timeout: 30s\nrate_limit_per_minute: 5\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9100" {
		t.Fatalf("expected env to win over file, got %q", cfg.Port)
	}
	if cfg.APIKey() != "co-key" || cfg.RequestTimeout != 30*time.Second || cfg.RateLimit != 5 {
		t.Fatalf("unexpected file values %+v", cfg)
	}

	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
