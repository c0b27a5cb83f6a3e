// Package output renders Cloudability reports for people and spreadsheets.
//
// Reports print as the pretty JSON form, an ASCII table, CSV or a PDF. Table,
// CSV and PDF columns are the union of the entry keys in the order they are
// first seen. Export writes a report to <base>_<timestamp>.<ext> in a directory.
package output
