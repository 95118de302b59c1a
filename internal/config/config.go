package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port             string        `yaml:"port"`
	DatabaseURL      string        `yaml:"database_url"`
	RedisURL         string        `yaml:"redis_url"`
	FrontendOrigin   string        `yaml:"frontend_origin"`
	LogLevel         string        `yaml:"log_level"`
	LLMProvider      string        `yaml:"llm_provider"`
	LLMModel         string        `yaml:"llm_model"`
	LLMBaseURL       string        `yaml:"llm_base_url"`
	OpenAIAPIKey     string        `yaml:"openai_api_key"`
	AnthropicAPIKey  string        `yaml:"anthropic_api_key"`
	CohereAPIKey     string        `yaml:"cohere_api_key"`
	MaxContentLength int           `yaml:"max_content_length"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	RateLimit        int           `yaml:"rate_limit_per_minute"`
	WorkerBatchSize  int           `yaml:"worker_batch_size"`
}

func defaults() Config {
	return Config{
		Port:             "8000",
		LogLevel:         "info",
		LLMProvider:      "openai",
		MaxContentLength: 50000,
		RequestTimeout:   120 * time.Second,
		RateLimit:        60,
		WorkerBatchSize:  10,
	}
}

// Load starts from defaults, applies the YAML file named by CONFIG_FILE when
// set, then lets environment variables override individual keys.
func Load() (Config, error) {
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	overrideFromEnv(&cfg)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LLMProvider = strings.ToLower(cfg.LLMProvider)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("decode config file: %w", err)
	}
	return nil
}

func overrideFromEnv(cfg *Config) {
	stringEnv("PORT", &cfg.Port)
	stringEnv("DATABASE_URL", &cfg.DatabaseURL)
	stringEnv("REDIS_URL", &cfg.RedisURL)
	stringEnv("FRONTEND_ORIGIN", &cfg.FrontendOrigin)
	stringEnv("LOG_LEVEL", &cfg.LogLevel)
	stringEnv("LLM_PROVIDER", &cfg.LLMProvider)
	stringEnv("LLM_MODEL", &cfg.LLMModel)
	stringEnv("LLM_BASE_URL", &cfg.LLMBaseURL)
	stringEnv("OPENAI_API_KEY", &cfg.OpenAIAPIKey)
	stringEnv("ANTHROPIC_API_KEY", &cfg.AnthropicAPIKey)
	stringEnv("COHERE_API_KEY", &cfg.CohereAPIKey)
	intEnv("MAX_CONTENT_LENGTH", &cfg.MaxContentLength)
	durationEnv("REQUEST_TIMEOUT", &cfg.RequestTimeout)
	intEnv("RATE_LIMIT_PER_MINUTE", &cfg.RateLimit)
	intEnv("WORKER_BATCH_SIZE", &cfg.WorkerBatchSize)
}

// APIKey returns the credential for the selected provider.
func (c Config) APIKey() string {
	switch c.LLMProvider {
	case "claude", "anthropic":
		return c.AnthropicAPIKey
	case "cohere":
		return c.CohereAPIKey
	default:
		return c.OpenAIAPIKey
	}
}

func stringEnv(key string, dst *string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*dst = value
	}
}

func intEnv(key string, dst *int) {
	value, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err == nil && value > 0 {
		*dst = value
	}
}

// durationEnv accepts Go durations ("90s") or a bare number of seconds.
func durationEnv(key string, dst *time.Duration) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		*dst = time.Duration(seconds) * time.Second
		return
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		*dst = d
	}
}
