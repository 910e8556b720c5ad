package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"scribeflow/internal/config"
	"scribeflow/internal/flows"
	"scribeflow/internal/observability"
	"scribeflow/internal/upstream/gemini"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "scribeflow",
		Short:         "Clinical note generation on top of Gemini",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(flowsCmd())
	rootCmd.AddCommand(runCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the wiring shared by the serve and run commands.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	client  *gemini.Client
	flows   *flows.Service
}

func newApp(ctx context.Context, logOutput *os.File) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger := newLogger(logOutput, cfg.LogLevel)
	metrics := observability.NewMetrics()

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Transcription of long recordings may legitimately outlast REQUEST_TIMEOUT_SECONDS.
	httpClient := &http.Client{
		Timeout:   max(cfg.RequestTimeout, cfg.TranscriptionTimeout),
		Transport: transport,
	}

	client, err := gemini.New(ctx, gemini.Config{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		HTTPClient: httpClient,
	}, gemini.WithObserver(metrics.ObserveModel))
	if err != nil {
		return nil, err
	}

	flowService := flows.New(client,
		flows.DefaultRouting(flows.Models{Flash: cfg.FlashModel, Pro: cfg.ProModel}),
		flows.WithLogger(logger),
		flows.WithMetrics(metrics),
		flows.WithTimeouts(cfg.FlowTimeout, cfg.TranscriptionTimeout),
	)

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		client:  client,
		flows:   flowService,
	}, nil
}

func newLogger(out *os.File, level string) *slog.Logger {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn", "warning":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slogLevel}))
}
