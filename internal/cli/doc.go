// Package cli implements the cloudability command.
//
// Commands:
//
//	cloudability                      print the default billing report
//	cloudability billing              billing report with --by and filter flags
//	cloudability organizations [id]   all organizations or one
//	cloudability cost current|measures|filters
//	cloudability cost run|enqueue     cost reports over --start/--end
//	cloudability cost state|results|wait <report-id>
//	cloudability serve                Prometheus exporter
//	cloudability version
//
// Reports go to stdout in the --output format; logs go to stderr. With
// --out-dir, or for PDF, the report is written to a timestamped file instead.
package cli
