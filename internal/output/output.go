package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/zgpcy/cloudability-exporter/internal/cloudability"
)

// Format selects how a report is rendered
type Format string

// Supported formats
const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatPDF   Format = "pdf"
)

// valueColumn heads the single column used for reports whose entries are not objects
const valueColumn = "value"

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatTable, FormatCSV, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want json, table, csv or pdf)", s)
	}
}

// Extension returns the file extension used when exporting in f
func (f Format) Extension() string {
	return string(f)
}

// Write renders r to w in the given format
func Write(w io.Writer, f Format, title string, r *cloudability.Report) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatTable:
		return WriteTable(w, title, r)
	case FormatCSV:
		return WriteCSV(w, r)
	case FormatPDF:
		return WritePDF(w, title, r, time.Now())
	default:
		return fmt.Errorf("unknown output format %q", f)
	}
}

// WriteJSON writes the pretty report form followed by a newline
func WriteJSON(w io.Writer, r *cloudability.Report) error {
	if _, err := fmt.Fprintln(w, r.String()); err != nil {
		return fmt.Errorf("error writing JSON output: %w", err)
	}
	return nil
}

// WriteTable renders r as an ASCII table, one row per entry
func WriteTable(w io.Writer, title string, r *cloudability.Report) error {
	if r.Len() == 0 {
		_, err := fmt.Fprintf(w, "%s\nNo entries.\n", title)
		return err
	}

	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	columns := Columns(r)

	t := table.New().
		Border(lipgloss.ASCIIBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			return cellStyle
		}).
		Headers(columns...)

	for _, row := range Rows(r, columns) {
		t.Row(row...)
	}

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d entries\n", r.Len())
	return err
}

// WriteCSV writes a header row of Columns followed by one record per entry
func WriteCSV(w io.Writer, r *cloudability.Report) error {
	writer := csv.NewWriter(w)

	columns := Columns(r)
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("error writing CSV header: %w", err)
	}
	for _, record := range Rows(r, columns) {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("error writing CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Columns returns the union of entry keys in first-seen order. Reports made
// of non-object entries get a single value column.
func Columns(r *cloudability.Report) []string {
	seen := make(map[string]bool)
	var columns []string
	for _, entry := range r.All() {
		for _, key := range entry.Keys() {
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
	}
	if len(columns) == 0 && r.Len() > 0 {
		return []string{valueColumn}
	}
	return columns
}

// Rows renders every entry as cells aligned with columns. Missing fields are empty.
func Rows(r *cloudability.Report, columns []string) [][]string {
	rows := make([][]string, 0, r.Len())
	for _, entry := range r.All() {
		row := make([]string, len(columns))
		if len(entry.Keys()) == 0 {
			if len(row) > 0 {
				row[0] = entry.Compact()
			}
			rows = append(rows, row)
			continue
		}
		for i, col := range columns {
			if text, err := entry.Text(col); err == nil {
				row[i] = text
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Export writes r into dir as <base>_<timestamp>.<ext> and returns the absolute path
func Export(r *cloudability.Report, f Format, title, base, dir string, now time.Time) (string, error) {
	outputFilename, err := generateFilename(base, dir, f.Extension(), now)
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating %s file: %w", f, err)
	}
	defer file.Close()

	if f == FormatPDF {
		err = WritePDF(file, title, r, now)
	} else {
		err = Write(file, f, title, r)
	}
	if err != nil {
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("error closing %s file: %w", f, err)
	}

	return filepath.Abs(outputFilename)
}

// generateFilename builds a timestamped file name and makes sure the directory exists
func generateFilename(base, dir, ext string, now time.Time) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get current working directory: %w", err)
		}
		dir = cwd
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating output directory '%s': %w", dir, err)
	}
	timestamp := now.Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.%s", base, timestamp, ext)
	return filepath.Join(dir, filename), nil
}
