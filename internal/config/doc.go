// Package config provides configuration management for the Cloudability
// client and exporter.
//
// This package handles loading an optional configuration file, applying
// defaults and environment variable overrides, and validating the result.
// The file format follows the extension: .yaml/.yml, .toml or .json.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (highest priority)
//  2. Configuration file
//  3. Default values (lowest priority)
//
// Supported environment variables:
//   - CLOUDABILITY_API_TOKEN: Auth token (required)
//   - CLOUDABILITY_API_URL: API root
//   - CLOUDABILITY_API_TIMEOUT: HTTP timeout in seconds (1-300)
//   - CLOUDABILITY_SCRAPE_TIMEOUT: Per-scrape fetch timeout in seconds (1-300)
//   - CLOUDABILITY_HTTP_PORT: Exporter HTTP port (1-65535)
//   - CLOUDABILITY_LOG_LEVEL: Log level (debug, info, warn, error)
//   - CLOUDABILITY_BILLING_BY: Billing report grouping dimension
//
// Example configuration file (config.yaml):
//
//	api_timeout: 30
//	http_port: 9191
//	log_level: "info"
//
//	billing:
//	  by: "vendor"
//	  label_field: "vendor_name"
//	  value_field: "spend"
//	  currency: "USD"
//	  filters:
//	    period: "2026-01-01"
//
// Example usage:
//
//	cfg, err := config.Load("config.yaml")
//	if err != nil {
//		log.Fatalf("Failed to load config: %v", err)
//	}
package config
