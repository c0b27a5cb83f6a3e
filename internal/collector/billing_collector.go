package collector

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/zgpcy/cloudability-exporter/internal/clock"
	"github.com/zgpcy/cloudability-exporter/internal/cloudability"
	"github.com/zgpcy/cloudability-exporter/internal/config"
	"github.com/zgpcy/cloudability-exporter/internal/logger"
	"github.com/zgpcy/cloudability-exporter/internal/version"
)

// BillingSource fetches billing reports. *cloudability.Cloudability implements it.
type BillingSource interface {
	BillingReport(ctx context.Context, q cloudability.BillingQuery) (*cloudability.Report, error)
}

// BillingCollector implements prometheus.Collector for Cloudability billing spend.
// Every scrape fetches a fresh report; nothing but the outcome is kept.
type BillingCollector struct {
	source  BillingSource
	cfg     *config.Config
	query   cloudability.BillingQuery
	logger  *logger.Logger
	clock   clock.Clock // Time provider for testing
	timeout time.Duration

	// Metrics
	spendMetric          *prometheus.Desc
	upMetric             *prometheus.Desc
	scrapeDurationMetric *prometheus.Desc
	scrapeErrorsTotal    prometheus.Counter
	lastScrapeTimeMetric *prometheus.Desc
	entryCountMetric     *prometheus.Desc
	buildInfo            *prometheus.GaugeVec // Build version information

	// State
	mu          sync.RWMutex
	lastError   error
	lastScrape  time.Time
	lastSuccess time.Time
	entryCount  int
	isReady     bool
}

// spendSample is one exported spend value
type spendSample struct {
	key   string
	value decimal.Decimal
}

// NewBillingCollector creates a new BillingCollector
func NewBillingCollector(source BillingSource, cfg *config.Config, log *logger.Logger) *BillingCollector {
	scrapeErrorsTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudability_scrape_errors_total",
			Help: "Total number of failed billing report scrapes since startup",
		},
	)

	// Create build info metric
	buildInfo := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cloudability_exporter_build_info",
			Help: "Build version information",
		},
		[]string{"version", "git_commit", "build_date", "go_version"},
	)

	// Set build info to 1 with version labels
	versionInfo := version.Info()
	buildInfo.With(prometheus.Labels{
		"version":    versionInfo["version"],
		"git_commit": versionInfo["git_commit"],
		"build_date": versionInfo["build_date"],
		"go_version": versionInfo["go_version"],
	}).Set(1)

	timeout := cfg.ScrapeTimeoutDuration()
	if timeout <= 0 {
		timeout = config.DefaultScrapeTimeout * time.Second
	}

	return &BillingCollector{
		source:  source,
		cfg:     cfg,
		query:   cfg.BillingQuery(),
		logger:  log,
		clock:   clock.RealClock{}, // Use real system time by default
		timeout: timeout,
		spendMetric: prometheus.NewDesc(
			"cloudability_billing_spend",
			"Spend per billing report entry, keyed by the configured label field.",
			[]string{"by", "key", "currency"},
			nil,
		),
		upMetric: prometheus.NewDesc(
			"cloudability_up",
			"Was the last billing report fetch successful (1 = success, 0 = failure)",
			nil,
			nil,
		),
		scrapeDurationMetric: prometheus.NewDesc(
			"cloudability_scrape_duration_seconds",
			"Duration of the billing report fetch in seconds",
			nil,
			nil,
		),
		scrapeErrorsTotal: scrapeErrorsTotal,
		lastScrapeTimeMetric: prometheus.NewDesc(
			"cloudability_last_scrape_timestamp_seconds",
			"Unix timestamp of the last successful scrape",
			nil,
			nil,
		),
		entryCountMetric: prometheus.NewDesc(
			"cloudability_billing_entries",
			"Number of entries in the last billing report",
			nil,
			nil,
		),
		buildInfo: buildInfo,
	}
}

// Describe implements prometheus.Collector
func (c *BillingCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.spendMetric
	ch <- c.upMetric
	ch <- c.scrapeDurationMetric
	c.scrapeErrorsTotal.Describe(ch)
	ch <- c.lastScrapeTimeMetric
	ch <- c.entryCountMetric
	c.buildInfo.Describe(ch)
}

// Collect implements prometheus.Collector
func (c *BillingCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	start := time.Now()
	report, err := c.source.BillingReport(ctx, c.query)
	duration := time.Since(start)

	var samples []spendSample
	if err == nil {
		samples = c.samples(report)
	}
	c.record(report, err, duration)

	for _, s := range samples {
		ch <- prometheus.MustNewConstMetric(
			c.spendMetric,
			prometheus.GaugeValue,
			s.value.InexactFloat64(),
			c.cfg.Billing.By,
			s.key,
			c.cfg.Billing.Currency,
		)
	}

	upValue := 0.0
	if err == nil {
		upValue = 1.0
	}
	ch <- prometheus.MustNewConstMetric(c.upMetric, prometheus.GaugeValue, upValue)
	ch <- prometheus.MustNewConstMetric(c.scrapeDurationMetric, prometheus.GaugeValue, duration.Seconds())

	// Counter survives across scrapes
	ch <- c.scrapeErrorsTotal

	c.mu.RLock()
	lastSuccess := c.lastSuccess
	entries := c.entryCount
	c.mu.RUnlock()

	if !lastSuccess.IsZero() {
		ch <- prometheus.MustNewConstMetric(
			c.lastScrapeTimeMetric,
			prometheus.GaugeValue,
			float64(lastSuccess.Unix()),
		)
	}
	ch <- prometheus.MustNewConstMetric(c.entryCountMetric, prometheus.GaugeValue, float64(entries))

	c.buildInfo.Collect(ch)
}

// samples turns report entries into spend samples. Entries sharing a key are
// summed so the label set stays unique; entries without a usable value are skipped.
func (c *BillingCollector) samples(report *cloudability.Report) []spendSample {
	labelField := c.cfg.Billing.LabelField
	valueField := c.cfg.Billing.ValueField

	index := make(map[string]int)
	var out []spendSample
	skipped := 0

	for i, entry := range report.All() {
		value, err := entry.Decimal(valueField)
		if err != nil {
			skipped++
			c.logger.Debug("Skipping billing entry", "index", i, "field", valueField, "error", err)
			continue
		}
		key, err := entry.Text(labelField)
		if err != nil {
			key = ""
		}

		if pos, ok := index[key]; ok {
			out[pos].value = out[pos].value.Add(value)
			continue
		}
		index[key] = len(out)
		out = append(out, spendSample{key: key, value: value})
	}

	if skipped > 0 {
		c.logger.Warn("Billing entries without a usable value",
			"skipped", skipped,
			"value_field", valueField)
	}
	return out
}

// record stores the outcome of one fetch
func (c *BillingCollector) record(report *cloudability.Report, err error, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastScrape = c.clock.Now()
	c.lastError = err

	if err != nil {
		c.scrapeErrorsTotal.Inc()
		c.logger.Error("Failed to fetch billing report", "by", c.query.By, "error", err)
		c.isReady = false
		return
	}

	c.lastSuccess = c.lastScrape
	c.entryCount = report.Len()
	c.isReady = true
	c.logger.Info("Fetched billing report",
		"by", c.query.By,
		"entry_count", c.entryCount,
		"duration_seconds", duration.Seconds())
}

// Check runs one fetch outside of a scrape, so readiness reflects the API
// before Prometheus first calls Collect.
func (c *BillingCollector) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	report, err := c.source.BillingReport(ctx, c.query)
	c.record(report, err, time.Since(start))
	return err
}

// IsReady returns true if the last fetch succeeded
func (c *BillingCollector) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isReady
}

// LastError returns the error of the last fetch, if any
func (c *BillingCollector) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

// LastScrapeTime returns the time of the last fetch attempt
func (c *BillingCollector) LastScrapeTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastScrape
}

// EntryCount returns the number of entries in the last successful report
func (c *BillingCollector) EntryCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entryCount
}
