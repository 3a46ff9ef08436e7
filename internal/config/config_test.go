package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var configKeys = []string{
	"PORT", "ENV", "APP_VERSION", "HF_API_BASE", "HF_API_TOKEN", "NEENMED_ENDPOINT",
	"MODELS_CONFIG", "REDIS_ADDR", "USER_REQUEST_LIMIT", "USAGE_WINDOW",
	"GOOGLE_CLOUD_PROJECT", "GOOGLE_CLOUD_LOCATION", "GEMINI_API_KEY", "GEMINI_MODEL",
	"FALLBACK_MODEL", "BACKEND_MAX_RETRIES", "GENERATION_TIMEOUT", "HTTP_CLIENT_TIMEOUT",
	"WARM_BACKENDS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != "8080" || cfg.HFAPIBase != "https://api-inference.huggingface.co" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.UserRequestLimit != 0 || cfg.BackendMaxRetries != 0 || cfg.GenerationTimeout != 0 {
		t.Fatalf("single-attempt defaults changed: %+v", cfg)
	}
	if cfg.UsageWindow != 24*time.Hour || !cfg.WarmBackends {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.GeminiEnabled() || cfg.LimiterEnabled() {
		t.Fatal("optional integrations should be off by default")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("HF_API_BASE", "http://hf.local/")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("USER_REQUEST_LIMIT", "25")
	t.Setenv("USAGE_WINDOW", "1h")
	t.Setenv("FALLBACK_MODEL", "Gemini")
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("WARM_BACKENDS", "false")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != "9000" || cfg.HFAPIBase != "http://hf.local" {
		t.Fatalf("unexpected %+v", cfg)
	}
	if !cfg.LimiterEnabled() || cfg.UserRequestLimit != 25 || cfg.UsageWindow != time.Hour {
		t.Fatalf("limiter config not applied: %+v", cfg)
	}
	if cfg.FallbackModel != "gemini" || !cfg.GeminiEnabled() || cfg.WarmBackends {
		t.Fatalf("unexpected %+v", cfg)
	}
}

func TestLimiterWithoutRedis(t *testing.T) {
	clearEnv(t)
	t.Setenv("USER_REQUEST_LIMIT", "3")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if !cfg.LimiterEnabled() || cfg.RedisAddr != "" {
		t.Fatalf("expected in-memory limiter config, got %+v", cfg)
	}
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"USER_REQUEST_LIMIT":  "lots",
		"GENERATION_TIMEOUT":  "soon",
		"WARM_BACKENDS":       "maybe",
		"FALLBACK_MODEL":      "gpt-4",
		"BACKEND_MAX_RETRIES": "-1",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected error for %s=%s", key, val)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env.dev")
	if err := os.WriteFile(path, []byte("PORT=7070\nHF_API_TOKEN=\"hf_test\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// godotenv does not override variables that are already set, even empty ones.
	os.Unsetenv("PORT")
	os.Unsetenv("HF_API_TOKEN")

	if !LoadEnvFile(path) {
		t.Fatal("expected env file to load")
	}
	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "7070" || cfg.HFAPIToken != "hf_test" {
		t.Fatalf("env file not applied: %+v", cfg)
	}
	if LoadEnvFile(filepath.Join(t.TempDir(), "missing")) {
		t.Fatal("missing file reported as loaded")
	}
}
