package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zgpcy/cloudability-exporter/internal/collector"
	"github.com/zgpcy/cloudability-exporter/internal/config"
	"github.com/zgpcy/cloudability-exporter/internal/logger"
	"github.com/zgpcy/cloudability-exporter/internal/version"
)

// HTTP server timeout constants
const (
	DefaultReadTimeout  = 15 * time.Second // Maximum duration for reading the entire request
	DefaultWriteTimeout = 15 * time.Second // Maximum duration before timing out writes of the response
	DefaultIdleTimeout  = 60 * time.Second // Maximum amount of time to wait for the next request

	// writeTimeoutMargin is added to the scrape timeout so a slow fetch can still be written out
	writeTimeoutMargin = 5 * time.Second
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Cloudability Exporter</title>
<style>
body { font-family: sans-serif; margin: 2em; }
.ready { color: #2e7d32; }
.not-ready { color: #c62828; }
td { padding: 0.2em 1em 0.2em 0; }
</style>
</head>
<body>
<h1>Cloudability Exporter</h1>
<p>Status: <strong class="{{.StatusClass}}">{{.StatusText}}</strong></p>
<table>
<tr><td>Last scrape</td><td>{{.LastScrape}}</td></tr>
<tr><td>Billing entries</td><td>{{.EntryCount}}</td></tr>
<tr><td>Grouped by</td><td>{{.BillingBy}}</td></tr>
<tr><td>Scrape timeout</td><td>{{.ScrapeTimeout}}s</td></tr>
<tr><td>Version</td><td>{{.Version}}</td></tr>
</table>
<ul>
<li><a href="/metrics">Metrics</a></li>
<li><a href="/health">Health</a></li>
<li><a href="/ready">Ready</a></li>
</ul>
</body>
</html>
`))

// indexPageData holds template data for the index page
type indexPageData struct {
	StatusClass   string
	StatusText    string
	LastScrape    string
	EntryCount    int
	BillingBy     string
	ScrapeTimeout int
	Version       string
}

// Server represents the HTTP server
type Server struct {
	server    *http.Server
	collector *collector.BillingCollector
	cfg       *config.Config
	logger    *logger.Logger
}

// NewServer creates a new HTTP server. Metrics are served from registry.
func NewServer(cfg *config.Config, collector *collector.BillingCollector, registry *prometheus.Registry, log *logger.Logger) *Server {
	mux := http.NewServeMux()

	writeTimeout := DefaultWriteTimeout
	if scrape := cfg.ScrapeTimeoutDuration() + writeTimeoutMargin; scrape > writeTimeout {
		writeTimeout = scrape
	}

	s := &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
			Handler:      mux,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  DefaultIdleTimeout,
		},
		collector: collector,
		cfg:       cfg,
		logger:    log,
	}

	// Register handlers
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorLog: &promLogger{log},
	}))

	return s
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", "address", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// handleIndex serves a simple landing page
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	// Prepare template data
	ready := s.collector.IsReady()
	statusClass := "not-ready"
	statusText := "Not Ready"
	if ready {
		statusClass = "ready"
		statusText = "Ready"
	}

	lastScrape := s.collector.LastScrapeTime()
	lastScrapeText := "Never"
	if !lastScrape.IsZero() {
		lastScrapeText = lastScrape.Format("2006-01-02 15:04:05 MST")
	}

	data := indexPageData{
		StatusClass:   statusClass,
		StatusText:    statusText,
		LastScrape:    lastScrapeText,
		EntryCount:    s.collector.EntryCount(),
		BillingBy:     s.cfg.Billing.By,
		ScrapeTimeout: s.cfg.ScrapeTimeout,
		Version:       version.Version,
	}

	// Execute template
	w.Header().Set("Content-Type", "text/html")
	if err := indexTemplate.Execute(w, data); err != nil {
		s.logger.Error("Failed to execute index template", "error", err)
	}
}

// handleHealth handles health check requests (always returns 200 for liveness)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(`{"status":"healthy"}`)); err != nil {
		s.logger.Error("Failed to write health response", "error", err)
	}
}

// handleReady handles readiness check requests (returns 200 only when the last fetch succeeded)
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.collector.LastError(); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}

	if !s.collector.IsReady() {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "not ready",
			"message": "waiting for initial billing report fetch",
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to write response", "status", status, "error", err)
	}
}

// promLogger adapts the structured logger to promhttp's error logger
type promLogger struct {
	log *logger.Logger
}

func (l *promLogger) Println(v ...any) {
	l.log.Error("Metrics handler error", "error", fmt.Sprint(v...))
}
