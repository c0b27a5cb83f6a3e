package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/zgpcy/cloudability-exporter/internal/cloudability"
)

// Configuration validation constants
const (
	MinPort          = 1     // Minimum valid port number
	MaxPort          = 65535 // Maximum valid port number
	MaxAPITimeout    = 300   // Upper bound for api_timeout in seconds
	MaxScrapeTimeout = 300   // Upper bound for scrape_timeout in seconds

	// Default values
	DefaultAPIURL        = cloudability.DefaultBaseURL
	DefaultAPITimeout    = 30 // API timeout in seconds
	DefaultScrapeTimeout = 60 // Per-scrape fetch timeout in seconds
	DefaultHTTPPort      = 9191
	DefaultLogLevel      = "info"
	DefaultBillingBy     = "period"
	DefaultCurrency      = "USD"
	DefaultValueField    = "spend"
)

// Environment variables
const (
	EnvToken         = "CLOUDABILITY_API_TOKEN"
	EnvAPIURL        = "CLOUDABILITY_API_URL"
	EnvAPITimeout    = "CLOUDABILITY_API_TIMEOUT"
	EnvLogLevel      = "CLOUDABILITY_LOG_LEVEL"
	EnvHTTPPort      = "CLOUDABILITY_HTTP_PORT"
	EnvBillingBy     = "CLOUDABILITY_BILLING_BY"
	EnvScrapeTimeout = "CLOUDABILITY_SCRAPE_TIMEOUT"
)

// BillingFilters narrows the exported billing report. Empty values are unset.
type BillingFilters struct {
	Service    string `yaml:"service" toml:"service" json:"service"`
	Vendor     string `yaml:"vendor" toml:"vendor" json:"vendor"`
	Period     string `yaml:"period" toml:"period" json:"period"`
	Credential string `yaml:"credential" toml:"credential" json:"credential"`
	Account    string `yaml:"account" toml:"account" json:"account"`
}

// Billing describes the billing report exported as metrics
type Billing struct {
	By         string         `yaml:"by" toml:"by" json:"by"`
	LabelField string         `yaml:"label_field" toml:"label_field" json:"label_field"` // Entry field used as the "key" label
	ValueField string         `yaml:"value_field" toml:"value_field" json:"value_field"` // Entry field holding the spend
	Currency   string         `yaml:"currency" toml:"currency" json:"currency"`
	Filters    BillingFilters `yaml:"filters" toml:"filters" json:"filters"`
}

// Config represents the application configuration
type Config struct {
	AuthToken     string  `yaml:"auth_token" toml:"auth_token" json:"auth_token"`
	APIURL        string  `yaml:"api_url" toml:"api_url" json:"api_url"`
	APITimeout    int     `yaml:"api_timeout" toml:"api_timeout" json:"api_timeout"`          // seconds
	ScrapeTimeout int     `yaml:"scrape_timeout" toml:"scrape_timeout" json:"scrape_timeout"` // seconds
	HTTPPort      int     `yaml:"http_port" toml:"http_port" json:"http_port"`
	LogLevel      string  `yaml:"log_level" toml:"log_level" json:"log_level"`
	Billing       Billing `yaml:"billing" toml:"billing" json:"billing"`
}

// Load reads the optional configuration file at path, applies defaults and
// environment variable overrides, and validates the result. An empty path
// skips the file. The format follows the extension: .yaml/.yml, .toml, .json.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Apply defaults
	applyDefaults(&cfg)

	// Override with environment variables
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("environment variable error: %w", err)
	}

	// Validate
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadFile decodes path into cfg according to its extension
func loadFile(path string, cfg *Config) error {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to access config file: %w", err)
	}
	if fileInfo.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	// #nosec G304 -- Config file path is provided by the operator via CLI flag
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML config file: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse TOML config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse JSON config file: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %q", ext)
	}
	return nil
}

// applyDefaults sets default values for configuration
func applyDefaults(cfg *Config) {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.APITimeout == 0 {
		cfg.APITimeout = DefaultAPITimeout
	}
	if cfg.ScrapeTimeout == 0 {
		cfg.ScrapeTimeout = DefaultScrapeTimeout
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = DefaultHTTPPort
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.Billing.By == "" {
		cfg.Billing.By = DefaultBillingBy
	}
	if cfg.Billing.LabelField == "" {
		cfg.Billing.LabelField = cfg.Billing.By
	}
	if cfg.Billing.ValueField == "" {
		cfg.Billing.ValueField = DefaultValueField
	}
	if cfg.Billing.Currency == "" {
		cfg.Billing.Currency = DefaultCurrency
	}
}

// applyEnvOverrides applies environment variable overrides to configuration
func applyEnvOverrides(cfg *Config) error {
	// The token normally only comes from the environment
	if val := os.Getenv(EnvToken); val != "" {
		cfg.AuthToken = val
	}

	if val := os.Getenv(EnvAPIURL); val != "" {
		cfg.APIURL = val
	}

	if val := os.Getenv(EnvAPITimeout); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s: must be an integer, got %q", EnvAPITimeout, val)
		}
		cfg.APITimeout = i
	}

	if val := os.Getenv(EnvScrapeTimeout); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s: must be an integer, got %q", EnvScrapeTimeout, val)
		}
		cfg.ScrapeTimeout = i
	}

	if val := os.Getenv(EnvHTTPPort); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s: must be an integer, got %q", EnvHTTPPort, val)
		}
		cfg.HTTPPort = i
	}

	if val := os.Getenv(EnvLogLevel); val != "" {
		cfg.LogLevel = val
	}

	// Changing the grouping also changes the default label field
	if val := os.Getenv(EnvBillingBy); val != "" {
		if cfg.Billing.LabelField == cfg.Billing.By {
			cfg.Billing.LabelField = val
		}
		cfg.Billing.By = val
	}

	return nil
}

// validate validates the configuration
func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.AuthToken) == "" {
		return fmt.Errorf("%s is not set: %w", EnvToken, cloudability.ErrMissingToken)
	}

	if !strings.HasPrefix(cfg.APIURL, "http://") && !strings.HasPrefix(cfg.APIURL, "https://") {
		return fmt.Errorf("api_url must be an http(s) URL, got %q", cfg.APIURL)
	}

	if cfg.APITimeout <= 0 {
		return fmt.Errorf("api_timeout must be positive, got %d", cfg.APITimeout)
	}
	if cfg.APITimeout > MaxAPITimeout {
		return fmt.Errorf("api_timeout should not exceed %d seconds, got %d", MaxAPITimeout, cfg.APITimeout)
	}

	if cfg.ScrapeTimeout <= 0 {
		return fmt.Errorf("scrape_timeout must be positive, got %d", cfg.ScrapeTimeout)
	}
	if cfg.ScrapeTimeout > MaxScrapeTimeout {
		return fmt.Errorf("scrape_timeout should not exceed %d seconds, got %d", MaxScrapeTimeout, cfg.ScrapeTimeout)
	}

	if cfg.HTTPPort < MinPort || cfg.HTTPPort > MaxPort {
		return fmt.Errorf("http_port must be between %d and %d", MinPort, MaxPort)
	}

	if cfg.Billing.ValueField == "" {
		return fmt.Errorf("billing.value_field must not be empty")
	}

	return nil
}

// APITimeoutDuration returns the HTTP timeout for API requests
func (c *Config) APITimeoutDuration() time.Duration {
	return time.Duration(c.APITimeout) * time.Second
}

// ScrapeTimeoutDuration returns the time budget of one exporter scrape
func (c *Config) ScrapeTimeoutDuration() time.Duration {
	return time.Duration(c.ScrapeTimeout) * time.Second
}

// BillingQuery converts the billing section into a report query.
// Empty filters stay unset.
func (c *Config) BillingQuery() cloudability.BillingQuery {
	f := c.Billing.Filters
	return cloudability.BillingQuery{
		By:         c.Billing.By,
		Service:    optional(f.Service),
		Vendor:     optional(f.Vendor),
		Period:     optional(f.Period),
		Credential: optional(f.Credential),
		Account:    optional(f.Account),
	}
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}
