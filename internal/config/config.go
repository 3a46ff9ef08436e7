package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultEnvFile = ".env.dev"

// Config is the process configuration, read once at startup.
type Config struct {
	Port       string
	Env        string
	AppVersion string

	HFAPIBase       string
	HFAPIToken      string
	NEENMEDEndpoint string
	ModelsConfig    string // optional YAML catalog path

	RedisAddr        string
	UserRequestLimit int
	UsageWindow      time.Duration

	GoogleCloudProject  string
	GoogleCloudLocation string
	GeminiAPIKey        string
	GeminiModel         string
	FallbackModel       string // "" or "gemini"

	BackendMaxRetries int
	GenerationTimeout time.Duration
	HTTPClientTimeout time.Duration
	WarmBackends      bool
}

// LoadEnvFile loads KEY=VALUE pairs from path into the environment.
// It reports whether the file was found; existing variables win.
func LoadEnvFile(path string) bool {
	return godotenv.Load(path) == nil
}

// FromEnv builds a Config from environment variables, applying defaults.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:                envOr("PORT", "8080"),
		Env:                 envOr("ENV", "development"),
		AppVersion:          envOr("APP_VERSION", "dev"),
		HFAPIBase:           strings.TrimSuffix(envOr("HF_API_BASE", "https://api-inference.huggingface.co"), "/"),
		HFAPIToken:          os.Getenv("HF_API_TOKEN"),
		NEENMEDEndpoint:     strings.TrimSuffix(os.Getenv("NEENMED_ENDPOINT"), "/"),
		ModelsConfig:        os.Getenv("MODELS_CONFIG"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		GoogleCloudProject:  os.Getenv("GOOGLE_CLOUD_PROJECT"),
		GoogleCloudLocation: os.Getenv("GOOGLE_CLOUD_LOCATION"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModel:         envOr("GEMINI_MODEL", "gemini-2.5-flash"),
		FallbackModel:       strings.ToLower(strings.TrimSpace(os.Getenv("FALLBACK_MODEL"))),
	}

	var err error
	if cfg.UserRequestLimit, err = intEnv("USER_REQUEST_LIMIT", 0); err != nil {
		return nil, err
	}
	if cfg.BackendMaxRetries, err = intEnv("BACKEND_MAX_RETRIES", 0); err != nil {
		return nil, err
	}
	if cfg.UsageWindow, err = durationEnv("USAGE_WINDOW", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.GenerationTimeout, err = durationEnv("GENERATION_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if cfg.HTTPClientTimeout, err = durationEnv("HTTP_CLIENT_TIMEOUT", 120*time.Second); err != nil {
		return nil, err
	}
	if cfg.WarmBackends, err = boolEnv("WARM_BACKENDS", true); err != nil {
		return nil, err
	}

	if cfg.FallbackModel != "" && cfg.FallbackModel != "gemini" {
		return nil, fmt.Errorf("FALLBACK_MODEL: unsupported value %q", cfg.FallbackModel)
	}
	if cfg.UserRequestLimit < 0 || cfg.BackendMaxRetries < 0 {
		return nil, fmt.Errorf("USER_REQUEST_LIMIT and BACKEND_MAX_RETRIES must not be negative")
	}
	return cfg, nil
}

// GeminiEnabled reports whether enough is configured to build a genai client.
func (c *Config) GeminiEnabled() bool {
	return c.GeminiAPIKey != "" || c.GoogleCloudProject != ""
}

// LimiterEnabled reports whether per-user quotas apply. Counters live in
// Redis when REDIS_ADDR is set and in process memory otherwise.
func (c *Config) LimiterEnabled() bool {
	return c.UserRequestLimit > 0
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
