// Package cloudability provides a client for the Cloudability cost
// management REST API.
//
// Every call issues exactly one authenticated GET request and wraps the JSON
// payload in a Report, an ordered and immutable collection of Entry values.
// There is no pagination, caching or retry: transport errors, non-2xx
// responses and unexpected payload shapes are returned to the caller.
//
// Resource families:
//   - Organizations: /organizations and /organizations/<id>
//   - CostReports: /reporting/cost with measures, filters, run, enqueue and
//     job state/results sub-resources
//   - BillingReports: /billing_reports grouped by a dimension with filters
//
// The main types are:
//   - Cloudability: facade with one method per report type
//   - Client: authenticated HTTP plumbing shared by all resources
//   - Report: sequence accessors (Head, Tail, Init, Last, Take, Drop)
//   - Entry: field access (Get, Lookup, Text, Decimal) and JSON rendering
//
// Example usage:
//
//	cb, err := cloudability.NewFromEnv()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	report, err := cb.BillingReport(ctx, cloudability.BillingQuery{By: "service", Vendor: 1})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Println(report)
//	for _, entry := range report.All() {
//		spend, err := entry.Decimal("spend")
//		...
//	}
package cloudability
