package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zgpcy/cloudability-exporter/internal/cloudability"
	"github.com/zgpcy/cloudability-exporter/internal/collector"
	"github.com/zgpcy/cloudability-exporter/internal/config"
	"github.com/zgpcy/cloudability-exporter/internal/logger"
)

// testLogger creates a logger for testing (error level to suppress test output)
func testLogger() *logger.Logger {
	return logger.New("error")
}

// mockSource is a mock billing source for testing
type mockSource struct {
	mu   sync.Mutex
	body string
	err  error
}

func (m *mockSource) BillingReport(ctx context.Context, _ cloudability.BillingQuery) (*cloudability.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return cloudability.DecodeReport([]byte(m.body))
}

func (m *mockSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func testConfig() *config.Config {
	return &config.Config{
		AuthToken:     "token",
		HTTPPort:      8080,
		ScrapeTimeout: 5,
		Billing: config.Billing{
			By:         "vendor",
			LabelField: "vendor_name",
			ValueField: "spend",
			Currency:   "USD",
		},
	}
}

const vendors = `[{"vendor_name": "Amazon", "spend": "100.00"}, {"vendor_name": "Azure", "spend": "42.5"}]`

// newTestServer wires a server to a collector backed by source
func newTestServer(t *testing.T, source *mockSource) (*Server, *collector.BillingCollector) {
	t.Helper()
	cfg := testConfig()
	coll := collector.NewBillingCollector(source, cfg, testLogger())

	registry := prometheus.NewRegistry()
	registry.MustRegister(coll)

	return NewServer(cfg, coll, registry, testLogger()), coll
}

func get(t *testing.T, s *Server, path string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()

	s.Handler().ServeHTTP(w, req)

	resp := w.Result()
	t.Cleanup(func() { resp.Body.Close() })

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	return resp, string(body)
}

// TestNewServer tests server creation
func TestNewServer(t *testing.T) {
	server, _ := newTestServer(t, &mockSource{body: vendors})

	if server == nil {
		t.Fatal("NewServer returned nil")
	}
	if server.server == nil {
		t.Error("server.server should not be nil")
	}
	if server.collector == nil {
		t.Error("server.collector should not be nil")
	}
	if server.server.Addr != ":8080" {
		t.Errorf("server address: got %v, want :8080", server.server.Addr)
	}
}

// TestHandleHealth tests the /health endpoint
func TestHandleHealth(t *testing.T) {
	server, _ := newTestServer(t, &mockSource{err: errors.New("cloudability API error")})

	resp, body := get(t, server, "/health")

	// Health should be OK even with collector errors
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Status code: got %v, want %v", resp.StatusCode, http.StatusOK)
	}
	if contentType := resp.Header.Get("Content-Type"); contentType != "application/json" {
		t.Errorf("Content-Type: got %v, want application/json", contentType)
	}
	if body != `{"status":"healthy"}` {
		t.Errorf("Response body: got %v, want %v", body, `{"status":"healthy"}`)
	}
}

// TestHandleReady_NotReady tests the /ready endpoint before any fetch
func TestHandleReady_NotReady(t *testing.T) {
	server, _ := newTestServer(t, &mockSource{body: vendors})

	resp, body := get(t, server, "/ready")

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Status code: got %v, want %v", resp.StatusCode, http.StatusServiceUnavailable)
	}
	if contentType := resp.Header.Get("Content-Type"); contentType != "application/json" {
		t.Errorf("Content-Type: got %v, want application/json", contentType)
	}
	if !strings.Contains(body, "not ready") {
		t.Errorf("Response body should contain 'not ready', got: %s", body)
	}
}

// TestHandleReady_Ready tests the /ready endpoint after a successful fetch
func TestHandleReady_Ready(t *testing.T) {
	server, coll := newTestServer(t, &mockSource{body: vendors})

	if err := coll.Check(context.Background()); err != nil {
		t.Fatalf("Check() error = %v", err)
	}

	resp, body := get(t, server, "/ready")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Status code: got %v, want %v", resp.StatusCode, http.StatusOK)
	}
	if !strings.Contains(body, `"ready"`) {
		t.Errorf("Response body should contain ready status, got: %s", body)
	}
}

// TestHandleReady_WithError tests that the error is reported as valid JSON
func TestHandleReady_WithError(t *testing.T) {
	server, coll := newTestServer(t, &mockSource{err: errors.New(`status 401: {"error":"bad token"}`)})

	if err := coll.Check(context.Background()); err == nil {
		t.Fatal("Check() error = nil, want error")
	}

	resp, body := get(t, server, "/ready")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Status code: got %v, want %v", resp.StatusCode, http.StatusServiceUnavailable)
	}

	var payload map[string]string
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("ready body is not JSON: %v (%s)", err, body)
	}
	if payload["status"] != "not ready" {
		t.Errorf("status = %q, want not ready", payload["status"])
	}
	if !strings.Contains(payload["error"], "bad token") {
		t.Errorf("error = %q, want the fetch error", payload["error"])
	}
}

// TestHandleReady_UnreachableAPI reports a transport failure without the auth token
func TestHandleReady_UnreachableAPI(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	baseURL := down.URL
	down.Close()

	api, err := cloudability.New("secret-token", cloudability.WithBaseURL(baseURL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	cfg := testConfig()
	coll := collector.NewBillingCollector(api, cfg, testLogger())
	registry := prometheus.NewRegistry()
	registry.MustRegister(coll)
	server := NewServer(cfg, coll, registry, testLogger())

	if err := coll.Check(context.Background()); err == nil {
		t.Fatal("Check() error = nil, want transport error")
	}

	resp, body := get(t, server, "/ready")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Status code: got %v, want %v", resp.StatusCode, http.StatusServiceUnavailable)
	}
	if strings.Contains(body, "secret-token") || strings.Contains(body, cloudability.AuthTokenParam) {
		t.Errorf("ready body leaks the token: %s", body)
	}
	if !strings.Contains(body, "/billing_reports") {
		t.Errorf("ready body = %s, want the failed resource", body)
	}
}

// TestHandleReady_StateTransitions follows readiness through fetch outcomes
func TestHandleReady_StateTransitions(t *testing.T) {
	source := &mockSource{body: vendors}
	server, coll := newTestServer(t, source)

	// State 1: Not ready (no fetch yet)
	if resp, _ := get(t, server, "/ready"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Error("Should be not ready before first fetch")
	}

	// State 2: A scrape succeeds
	if resp, _ := get(t, server, "/metrics"); resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d", resp.StatusCode)
	}
	if resp, _ := get(t, server, "/ready"); resp.StatusCode != http.StatusOK {
		t.Error("Should be ready after successful scrape")
	}

	// State 3: The next scrape fails
	source.SetError(errors.New("temporary failure"))
	get(t, server, "/metrics")
	if resp, _ := get(t, server, "/ready"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Error("Should be not ready after error")
	}
	if coll.LastError() == nil {
		t.Error("LastError should be set after failed scrape")
	}
}

// TestHandleIndex_NotReady tests the landing page before any fetch
func TestHandleIndex_NotReady(t *testing.T) {
	server, _ := newTestServer(t, &mockSource{body: vendors})

	resp, body := get(t, server, "/")

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Status code: got %v, want %v", resp.StatusCode, http.StatusOK)
	}
	if contentType := resp.Header.Get("Content-Type"); contentType != "text/html" {
		t.Errorf("Content-Type: got %v, want text/html", contentType)
	}

	expectedContent := []string{
		"Cloudability Exporter",
		"Not Ready",
		"Never",
		"vendor",
		"/metrics",
		"/health",
		"/ready",
	}
	for _, expected := range expectedContent {
		if !strings.Contains(body, expected) {
			t.Errorf("Response should contain %q", expected)
		}
	}
}

// TestHandleIndex_Ready tests the landing page after a successful fetch
func TestHandleIndex_Ready(t *testing.T) {
	server, coll := newTestServer(t, &mockSource{body: vendors})
	if err := coll.Check(context.Background()); err != nil {
		t.Fatalf("Check() error = %v", err)
	}

	_, body := get(t, server, "/")

	if !strings.Contains(body, `class="ready"`) {
		t.Error("Response should show ready status")
	}
	if !strings.Contains(body, "<td>2</td>") {
		t.Error("Response should show the entry count")
	}
	if strings.Contains(body, "Never") {
		t.Error("Response should show the last scrape time")
	}
}

func TestHandleIndex_UnknownPath(t *testing.T) {
	server, _ := newTestServer(t, &mockSource{body: vendors})

	if resp, _ := get(t, server, "/nope"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("Status code: got %v, want %v", resp.StatusCode, http.StatusNotFound)
	}
}

// TestMetricsEndpoint tests the /metrics endpoint
func TestMetricsEndpoint(t *testing.T) {
	server, _ := newTestServer(t, &mockSource{body: vendors})

	resp, body := get(t, server, "/metrics")

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Status code: got %v, want %v", resp.StatusCode, http.StatusOK)
	}
	if contentType := resp.Header.Get("Content-Type"); !strings.Contains(contentType, "text/plain") {
		t.Errorf("Content-Type should contain text/plain, got %v", contentType)
	}

	expectedMetrics := []string{
		`cloudability_billing_spend{by="vendor",currency="USD",key="Amazon"} 100`,
		`cloudability_billing_spend{by="vendor",currency="USD",key="Azure"} 42.5`,
		"cloudability_up 1",
		"cloudability_billing_entries 2",
		"cloudability_exporter_build_info",
	}
	for _, expected := range expectedMetrics {
		if !strings.Contains(body, expected) {
			t.Errorf("Metrics should contain %q", expected)
		}
	}
}

// TestMetricsEndpoint_Error tests /metrics when the fetch fails
func TestMetricsEndpoint_Error(t *testing.T) {
	server, _ := newTestServer(t, &mockSource{err: errors.New("boom")})

	resp, body := get(t, server, "/metrics")

	// Should still return 200 OK
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Status code: got %v, want %v", resp.StatusCode, http.StatusOK)
	}
	if !strings.Contains(body, "cloudability_up 0") {
		t.Error("cloudability_up should be 0 when the fetch fails")
	}
	if !strings.Contains(body, "cloudability_scrape_errors_total 1") {
		t.Error("scrape errors should be counted")
	}
	if strings.Contains(body, "cloudability_billing_spend{") {
		t.Error("no spend series should be exported after a failed fetch")
	}
}

// TestConcurrency_MultipleRequests tests handling multiple concurrent requests
func TestConcurrency_MultipleRequests(t *testing.T) {
	server, coll := newTestServer(t, &mockSource{body: vendors})
	if err := coll.Check(context.Background()); err != nil {
		t.Fatalf("Check() error = %v", err)
	}

	endpoints := []string{"/", "/health", "/ready", "/metrics"}

	var wg sync.WaitGroup
	numRequests := 20

	for _, endpoint := range endpoints {
		for i := 0; i < numRequests; i++ {
			wg.Add(1)
			go func(ep string) {
				defer wg.Done()

				req := httptest.NewRequest(http.MethodGet, ep, nil)
				w := httptest.NewRecorder()

				server.Handler().ServeHTTP(w, req)

				resp := w.Result()
				defer resp.Body.Close()

				// All endpoints should return successfully
				if resp.StatusCode != http.StatusOK {
					t.Errorf("Endpoint %s returned status %v, want %v", ep, resp.StatusCode, http.StatusOK)
				}
			}(endpoint)
		}
	}

	wg.Wait()
}

// TestServerTimeouts tests that server has proper timeout configurations
func TestServerTimeouts(t *testing.T) {
	server, _ := newTestServer(t, &mockSource{})

	if server.server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout: got %v, want 15s", server.server.ReadTimeout)
	}
	if server.server.WriteTimeout != 15*time.Second {
		t.Errorf("WriteTimeout: got %v, want 15s", server.server.WriteTimeout)
	}
	if server.server.IdleTimeout != 60*time.Second {
		t.Errorf("IdleTimeout: got %v, want 60s", server.server.IdleTimeout)
	}
}

func TestServerTimeouts_LongScrape(t *testing.T) {
	cfg := testConfig()
	cfg.ScrapeTimeout = 60
	coll := collector.NewBillingCollector(&mockSource{}, cfg, testLogger())
	server := NewServer(cfg, coll, prometheus.NewRegistry(), testLogger())

	if server.server.WriteTimeout != 65*time.Second {
		t.Errorf("WriteTimeout: got %v, want 65s", server.server.WriteTimeout)
	}
}

// TestShutdown tests graceful shutdown of a running server
func TestShutdown(t *testing.T) {
	cfg := testConfig()
	cfg.HTTPPort = 0
	coll := collector.NewBillingCollector(&mockSource{body: vendors}, cfg, testLogger())
	server := NewServer(cfg, coll, prometheus.NewRegistry(), testLogger())

	errs := make(chan error, 1)
	go func() {
		errs <- server.Start()
	}()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	select {
	case err := <-errs:
		if err != nil {
			t.Errorf("Start() error = %v, want nil after shutdown", err)
		}
	case <-time.After(time.Second):
		t.Error("Start() did not return after shutdown")
	}
}
