package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", " key ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GeminiAPIKey != "key" {
		t.Fatalf("api key not trimmed: %q", cfg.GeminiAPIKey)
	}
	if cfg.FlashModel != "gemini-1.5-flash" || cfg.ProModel != "gemini-1.5-pro" {
		t.Fatalf("unexpected models: %q %q", cfg.FlashModel, cfg.ProModel)
	}
	if cfg.FlowTimeout != 45*time.Second || cfg.TranscriptionTimeout != 120*time.Second {
		t.Fatalf("unexpected timeouts: %v %v", cfg.FlowTimeout, cfg.TranscriptionTimeout)
	}
	if cfg.MaxUploadBytes != 25<<20 {
		t.Fatalf("unexpected upload limit: %d", cfg.MaxUploadBytes)
	}
	if len(cfg.APITokens) != 0 || cfg.TracingEnabled {
		t.Fatalf("unexpected optional settings: %+v", cfg)
	}
}

func TestLoadParsesTokensAndBaseURL(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("GEMINI_BASE_URL", "http://127.0.0.1:9999/")
	t.Setenv("API_TOKENS", "alpha, ,beta")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GeminiBaseURL != "http://127.0.0.1:9999" {
		t.Fatalf("unexpected base url: %q", cfg.GeminiBaseURL)
	}
	if strings.Join(cfg.APITokens, "|") != "alpha|beta" {
		t.Fatalf("unexpected tokens: %v", cfg.APITokens)
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Fatalf("expected api key error, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")
	base, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cases := map[string]func(*Config){
		"FLOW_TIMEOUT_SECONDS": func(c *Config) { c.FlowTimeout = 0 },
		"MAX_UPLOAD_BYTES":     func(c *Config) { c.MaxUploadBytes = -1 },
		"TRACE_SAMPLE_RATE":    func(c *Config) { c.TraceSampleRate = 1.5 },
		"OTLP_ENDPOINT":        func(c *Config) { c.TracingEnabled = true; c.OTLPEndpoint = "" },
		"PRO_MODEL":            func(c *Config) { c.ProModel = "" },
	}
	for name, mutate := range cases {
		cfg := base
		mutate(&cfg)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), name) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}
