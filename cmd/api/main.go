package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/lead-intake/cmd/mainconfig"
	"github.com/wolfman30/lead-intake/internal/api/router"
	"github.com/wolfman30/lead-intake/internal/app/bootstrap"
	appconfig "github.com/wolfman30/lead-intake/internal/config"
	httpmiddleware "github.com/wolfman30/lead-intake/internal/http/middleware"
	"github.com/wolfman30/lead-intake/internal/leads"
	"github.com/wolfman30/lead-intake/internal/observability/metrics"
	"github.com/wolfman30/lead-intake/pkg/logging"
)

func main() {
	// A local .env is optional; deployed environments set variables directly.
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting lead intake API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"store", cfg.LeadsStore,
	)

	metricsHandler, intakeMetrics := setupMetrics()

	provider := bootstrap.NewLeadsProvider(cfg, mainconfig.AWSLoader(cfg), logger)
	defer provider.Close()

	intake := buildIntake(context.Background(), cfg, provider, intakeMetrics, logger)

	// Setup router
	r := router.New(&router.Config{
		Logger:         logger,
		LeadsHandler:   leads.NewHandler(intake, logger),
		MetricsHandler: metricsHandler,
		CORS:           httpmiddleware.NewCORSPolicy(cfg.AllowedOrigins()),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func setupMetrics() (http.Handler, *metrics.IntakeMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewIntakeMetrics(reg)
}

func buildIntake(ctx context.Context, cfg *appconfig.Config, provider leads.Provider, m *metrics.IntakeMetrics, logger *logging.Logger) *leads.Intake {
	return leads.NewIntake(leads.IntakeConfig{
		Provider: provider,
		Policy: leads.Policy{
			RequireName:           cfg.RequireName,
			RequireContactChannel: cfg.RequireContactChannel,
		},
		MinElapsed:   cfg.MinElapsed,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Notifier:     bootstrap.BuildNotifier(ctx, cfg, mainconfig.AWSLoader(cfg), logger),
		Metrics:      m,
		Logger:       logger,
	})
}
