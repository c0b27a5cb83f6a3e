// Package server provides an HTTP server for exposing Prometheus metrics.
//
// This package implements an HTTP server with multiple endpoints for
// serving Prometheus metrics, health checks, and a status page. It provides
// graceful shutdown support and configurable timeouts.
//
// Available endpoints:
//   - /           : Status page showing exporter state
//   - /metrics    : Prometheus metrics endpoint (serves the given registry)
//   - /health     : Liveness probe (always returns 200)
//   - /ready      : Readiness probe (returns 200 only when the last fetch succeeded)
//
// The server is configured with these timeout defaults:
//   - Read timeout: 15 seconds
//   - Write timeout: 15 seconds, or the scrape timeout plus 5 seconds when longer
//   - Idle timeout: 60 seconds
//
// Example usage:
//
//	registry := prometheus.NewRegistry()
//	registry.MustRegister(billingCollector)
//	srv := server.NewServer(cfg, billingCollector, registry, log)
//
//	// Start server in a goroutine
//	serverErrors := make(chan error, 1)
//	go func() {
//		serverErrors <- srv.Start()
//	}()
//
//	// Wait for shutdown signal
//	shutdown := make(chan os.Signal, 1)
//	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
//
//	select {
//	case err := <-serverErrors:
//		log.Fatalf("Server error: %v", err)
//	case <-shutdown:
//		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//		defer cancel()
//		if err := srv.Shutdown(ctx); err != nil {
//			log.Printf("Error during shutdown: %v", err)
//		}
//	}
package server
