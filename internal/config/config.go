package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	cenv "github.com/caarlos0/env/v11"
)

type Config struct {
	ListenAddr           string
	GeminiAPIKey         string
	GeminiBaseURL        string
	FlashModel           string
	ProModel             string
	RequestTimeout       time.Duration
	FlowTimeout          time.Duration
	TranscriptionTimeout time.Duration
	MaxUploadBytes       int64
	APITokens            []string
	LogLevel             string

	TracingEnabled  bool
	OTLPEndpoint    string
	TraceSampleRate float64
	ServiceName     string
}

type envConfig struct {
	ListenAddr                  string   `env:"LISTEN_ADDR" envDefault:":8080"`
	GeminiAPIKey                string   `env:"GEMINI_API_KEY"`
	GeminiBaseURL               string   `env:"GEMINI_BASE_URL"`
	FlashModel                  string   `env:"FLASH_MODEL" envDefault:"gemini-1.5-flash"`
	ProModel                    string   `env:"PRO_MODEL" envDefault:"gemini-1.5-pro"`
	RequestTimeoutSeconds       int      `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"60"`
	FlowTimeoutSeconds          int      `env:"FLOW_TIMEOUT_SECONDS" envDefault:"45"`
	TranscriptionTimeoutSeconds int      `env:"TRANSCRIPTION_TIMEOUT_SECONDS" envDefault:"120"`
	MaxUploadBytes              int64    `env:"MAX_UPLOAD_BYTES" envDefault:"26214400"`
	APITokens                   []string `env:"API_TOKENS" envSeparator:","`
	LogLevel                    string   `env:"LOG_LEVEL" envDefault:"info"`
	TracingEnabled              bool     `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint                string   `env:"OTLP_ENDPOINT" envDefault:"localhost:4317"`
	TraceSampleRate             float64  `env:"TRACE_SAMPLE_RATE" envDefault:"1.0"`
	ServiceName                 string   `env:"SERVICE_NAME" envDefault:"scribeflow"`
}

func Load() (Config, error) {
	var raw envConfig
	if err := cenv.Parse(&raw); err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:           strings.TrimSpace(raw.ListenAddr),
		GeminiAPIKey:         strings.TrimSpace(raw.GeminiAPIKey),
		GeminiBaseURL:        strings.TrimRight(strings.TrimSpace(raw.GeminiBaseURL), "/"),
		FlashModel:           strings.TrimSpace(raw.FlashModel),
		ProModel:             strings.TrimSpace(raw.ProModel),
		RequestTimeout:       time.Duration(raw.RequestTimeoutSeconds) * time.Second,
		FlowTimeout:          time.Duration(raw.FlowTimeoutSeconds) * time.Second,
		TranscriptionTimeout: time.Duration(raw.TranscriptionTimeoutSeconds) * time.Second,
		MaxUploadBytes:       raw.MaxUploadBytes,
		APITokens:            cleanTokens(raw.APITokens),
		LogLevel:             strings.ToLower(strings.TrimSpace(raw.LogLevel)),
		TracingEnabled:       raw.TracingEnabled,
		OTLPEndpoint:         strings.TrimSpace(raw.OTLPEndpoint),
		TraceSampleRate:      raw.TraceSampleRate,
		ServiceName:          strings.TrimSpace(raw.ServiceName),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("LISTEN_ADDR must not be empty")
	}
	if c.GeminiAPIKey == "" {
		return errors.New("GEMINI_API_KEY must not be empty")
	}
	if c.FlashModel == "" {
		return errors.New("FLASH_MODEL must not be empty")
	}
	if c.ProModel == "" {
		return errors.New("PRO_MODEL must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT_SECONDS must be > 0")
	}
	if c.FlowTimeout <= 0 {
		return errors.New("FLOW_TIMEOUT_SECONDS must be > 0")
	}
	if c.TranscriptionTimeout <= 0 {
		return errors.New("TRANSCRIPTION_TIMEOUT_SECONDS must be > 0")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be > 0")
	}
	if c.TraceSampleRate < 0 || c.TraceSampleRate > 1 {
		return fmt.Errorf("TRACE_SAMPLE_RATE must be within [0, 1], got %v", c.TraceSampleRate)
	}
	if c.TracingEnabled && c.OTLPEndpoint == "" {
		return errors.New("OTLP_ENDPOINT must not be empty when TRACING_ENABLED is set")
	}
	if c.ServiceName == "" {
		return errors.New("SERVICE_NAME must not be empty")
	}
	return nil
}

func cleanTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
