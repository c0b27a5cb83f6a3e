// Package collector implements a Prometheus collector for Cloudability billing spend.
//
// BillingCollector fetches one billing report per scrape, using the grouping
// and filters from the billing section of the configuration, and turns every
// entry into a spend sample. The entry field named by label_field becomes the
// "key" label and value_field holds the amount. Entries sharing a key are summed.
//
// The collector exposes the following metrics:
//   - cloudability_billing_spend{by,key,currency}: Spend per report entry
//   - cloudability_up: Whether the last fetch succeeded (1 = success, 0 = failure)
//   - cloudability_scrape_duration_seconds: Duration of the last fetch
//   - cloudability_scrape_errors_total: Total number of failed fetches
//   - cloudability_last_scrape_timestamp_seconds: Unix timestamp of the last successful fetch
//   - cloudability_billing_entries: Number of entries in the last report
//   - cloudability_exporter_build_info: Build version information
//
// No report data is cached between scrapes. Only the outcome of the last
// fetch is kept, for readiness checks.
//
// Example usage:
//
//	api, _ := cloudability.New(cfg.AuthToken)
//	c := collector.NewBillingCollector(api, cfg, log)
//
//	registry := prometheus.NewRegistry()
//	registry.MustRegister(c)
//
//	if c.IsReady() {
//		fmt.Println("Collector is ready")
//	}
package collector
