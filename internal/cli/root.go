package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zgpcy/cloudability-exporter/internal/clock"
	"github.com/zgpcy/cloudability-exporter/internal/cloudability"
	"github.com/zgpcy/cloudability-exporter/internal/config"
	"github.com/zgpcy/cloudability-exporter/internal/logger"
	"github.com/zgpcy/cloudability-exporter/internal/output"
	"github.com/zgpcy/cloudability-exporter/internal/version"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	headingColor = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen, color.Bold)
)

// app holds what every command shares: flags, streams and the clock
type app struct {
	configPath string
	format     string
	outDir     string

	stdout io.Writer
	stderr io.Writer
	clock  clock.Clock
}

// Execute runs the CLI with the process streams and returns the exit code
func Execute(ctx context.Context) int {
	cmd := NewRootCommand(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCommand builds the command tree writing reports to stdout and logs to stderr
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		stdout: stdout,
		stderr: stderr,
		clock:  clock.RealClock{},
	}

	root := &cobra.Command{
		Use:   "cloudability",
		Short: "Cloudability API client and Prometheus exporter",
		Long: `Query Cloudability billing, cost and organization reports, or serve
billing spend as Prometheus metrics.

Without a subcommand the default billing report is printed.
The auth token is read from ` + config.EnvToken + `.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBilling(cmd, billingFlags{})
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (.yaml, .toml or .json)")
	root.PersistentFlags().StringVarP(&a.format, "output", "o", string(output.FormatJSON), "output format: json, table, csv or pdf")
	root.PersistentFlags().StringVar(&a.outDir, "out-dir", "", "write the report to a timestamped file in this directory")

	root.AddCommand(
		a.newBillingCommand(),
		a.newOrganizationsCommand(),
		a.newCostCommand(),
		a.newServeCommand(),
		a.newVersionCommand(),
	)
	return root
}

// setup loads the configuration and builds a stderr logger
func (a *app) setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, logger.NewWithWriter(cfg.LogLevel, a.stderr), nil
}

// newAPI builds the API facade from configuration
func newAPI(cfg *config.Config, log *logger.Logger, opts ...cloudability.Option) (*cloudability.Cloudability, error) {
	base := []cloudability.Option{
		cloudability.WithBaseURL(cfg.APIURL),
		cloudability.WithTimeout(cfg.APITimeoutDuration()),
		cloudability.WithLogger(log),
	}
	return cloudability.New(cfg.AuthToken, append(base, opts...)...)
}

// connect is setup plus newAPI, for commands that only query the API
func (a *app) connect() (*cloudability.Cloudability, error) {
	cfg, log, err := a.setup()
	if err != nil {
		return nil, err
	}
	return newAPI(cfg, log)
}

// render prints r in the selected format, or exports it when an output
// directory is set or the format is PDF.
func (a *app) render(r *cloudability.Report, title, base string) error {
	format, err := output.ParseFormat(a.format)
	if err != nil {
		return err
	}

	if a.outDir != "" || format == output.FormatPDF {
		path, err := output.Export(r, format, title, base, a.outDir, a.clock.Now())
		if err != nil {
			return err
		}
		successColor.Fprintf(a.stdout, "Report saved to %s\n", path)
		return nil
	}

	if format == output.FormatTable {
		title = headingColor.Sprint(title)
	}
	return output.Write(a.stdout, format, title, r)
}

func (a *app) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(a.stdout, "cloudability", version.String())
			return err
		},
	}
}
