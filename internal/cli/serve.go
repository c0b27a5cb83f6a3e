package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/zgpcy/cloudability-exporter/internal/cloudability"
	"github.com/zgpcy/cloudability-exporter/internal/collector"
	"github.com/zgpcy/cloudability-exporter/internal/server"
	"github.com/zgpcy/cloudability-exporter/internal/version"
)

const (
	// DefaultShutdownTimeout is the maximum time to wait for graceful shutdown
	DefaultShutdownTimeout = 30 * time.Second
)

func (a *app) newServeCommand() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve billing spend as Prometheus metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context(), port)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (defaults to http_port)")
	return cmd
}

func (a *app) runServe(ctx context.Context, port int) error {
	cfg, log, err := a.setup()
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.HTTPPort = port
	}

	log.Info("Cloudability exporter starting",
		"version", version.Version,
		"config_path", a.configPath)
	log.Info("Configuration loaded successfully",
		"api_url", cfg.APIURL,
		"http_port", cfg.HTTPPort,
		"billing_by", cfg.Billing.By,
		"label_field", cfg.Billing.LabelField,
		"value_field", cfg.Billing.ValueField,
		"currency", cfg.Billing.Currency,
		"api_timeout_seconds", cfg.APITimeout,
		"scrape_timeout_seconds", cfg.ScrapeTimeout)

	registry := prometheus.NewRegistry()

	// Per-request API metrics
	apiMetrics, err := cloudability.NewMetrics(registry)
	if err != nil {
		return fmt.Errorf("failed to register API metrics: %w", err)
	}

	api, err := newAPI(cfg, log, cloudability.WithMetrics(apiMetrics))
	if err != nil {
		return fmt.Errorf("failed to create Cloudability client: %w", err)
	}

	billingCollector := collector.NewBillingCollector(api, cfg, log)
	if err := registry.Register(billingCollector); err != nil {
		return fmt.Errorf("failed to register collector: %w", err)
	}
	log.Info("Collector registered with Prometheus")

	// Register Go runtime metrics (memory, goroutines, GC stats)
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		log.Warn("Failed to register Go collector", "error", err)
	}

	// Register process metrics (CPU, memory, file descriptors)
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		log.Warn("Failed to register process collector", "error", err)
	}

	// First fetch sets readiness; a failure is reported but does not stop the exporter
	if err := billingCollector.Check(ctx); err != nil {
		log.Warn("Initial billing report fetch failed", "error", err)
	}

	srv := server.NewServer(cfg, billingCollector, registry, log)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	// Wait for interrupt signal, server error or cancellation
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Received shutdown signal, starting graceful shutdown", "signal", sig.String())
	case <-ctx.Done():
		log.Info("Context cancelled, starting graceful shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during server shutdown: %w", err)
	}

	log.Info("Server stopped gracefully")
	return nil
}
