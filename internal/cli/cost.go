package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/zgpcy/cloudability-exporter/internal/clock"
	"github.com/zgpcy/cloudability-exporter/internal/cloudability"
)

// costFlags holds the cost query flags as typed on the command line
type costFlags struct {
	start, end string
	dimensions []string
	metrics    []string
	sortBy     string
	order      string
	maxResults int
	offset     int
	chart      bool
	wait       bool
	pollEvery  time.Duration
	timeout    time.Duration
}

// DefaultWaitTimeout bounds how long wait and enqueue --wait poll a job
const DefaultWaitTimeout = 30 * time.Minute

func (a *app) newCostCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Query cost reports",
	}

	cmd.AddCommand(
		a.simpleCostCommand("current", "List the current cost reports", "cost_reports",
			func(r *cloudability.CostReports, cmd *cobra.Command) (*cloudability.Report, error) {
				return r.Current(cmd.Context())
			}),
		a.simpleCostCommand("measures", "List the available dimensions and metrics", "cost_measures",
			func(r *cloudability.CostReports, cmd *cobra.Command) (*cloudability.Report, error) {
				return r.Measures(cmd.Context())
			}),
		a.simpleCostCommand("filters", "List the available filters", "cost_filters",
			func(r *cloudability.CostReports, cmd *cobra.Command) (*cloudability.Report, error) {
				return r.Filters(cmd.Context())
			}),
		a.newCostRunCommand(),
		a.newCostEnqueueCommand(),
		a.jobCostCommand("state", "Print the state of an enqueued report",
			func(r *cloudability.CostReports, cmd *cobra.Command, rid string) (*cloudability.Report, error) {
				return r.CheckState(cmd.Context(), rid)
			}),
		a.jobCostCommand("results", "Print the results of a finished report",
			func(r *cloudability.CostReports, cmd *cobra.Command, rid string) (*cloudability.Report, error) {
				return r.Results(cmd.Context(), rid)
			}),
		a.newCostWaitCommand(),
	)
	return cmd
}

func (a *app) simpleCostCommand(use, short, base string, fetch func(*cloudability.CostReports, *cobra.Command) (*cloudability.Report, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.connect()
			if err != nil {
				return err
			}
			report, err := fetch(api.CostReports(), cmd)
			if err != nil {
				return err
			}
			return a.render(report, short, base)
		},
	}
}

func (a *app) jobCostCommand(use, short string, fetch func(*cloudability.CostReports, *cobra.Command, string) (*cloudability.Report, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <report-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.connect()
			if err != nil {
				return err
			}
			report, err := fetch(api.CostReports(), cmd, args[0])
			if err != nil {
				return err
			}
			return a.render(report, fmt.Sprintf("Report %s %s", args[0], use), "cost_"+use)
		},
	}
}

func (a *app) newCostRunCommand() *cobra.Command {
	var f costFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a cost report synchronously",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.costQuery(f)
			if err != nil {
				return err
			}
			api, err := a.connect()
			if err != nil {
				return err
			}
			report, err := api.CostReports().Run(cmd.Context(), q)
			if err != nil {
				return err
			}
			return a.render(report, costTitle(q), "cost_report")
		},
	}
	addCostQueryFlags(cmd, &f)
	return cmd
}

func (a *app) newCostEnqueueCommand() *cobra.Command {
	var f costFlags
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Enqueue a cost report, optionally waiting for its results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.costQuery(f)
			if err != nil {
				return err
			}
			api, err := a.connect()
			if err != nil {
				return err
			}

			reports := api.CostReports()
			enqueued, err := reports.Enqueue(cmd.Context(), q)
			if err != nil {
				return err
			}
			if !f.wait {
				return a.render(enqueued, "Enqueued cost report", "cost_enqueue")
			}

			rid, err := cloudability.JobID(enqueued)
			if err != nil {
				return fmt.Errorf("enqueue response has no report id: %w", err)
			}
			results, err := a.waitWithSpinner(cmd, reports, rid, f.pollEvery, f.timeout)
			if err != nil {
				return err
			}
			return a.render(results, costTitle(q), "cost_report")
		},
	}
	addCostQueryFlags(cmd, &f)
	cmd.Flags().BoolVar(&f.wait, "wait", false, "wait for the report to finish and print its results")
	addWaitFlags(cmd, &f)
	return cmd
}

func (a *app) newCostWaitCommand() *cobra.Command {
	var f costFlags
	cmd := &cobra.Command{
		Use:   "wait <report-id>",
		Short: "Wait for an enqueued report and print its results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.connect()
			if err != nil {
				return err
			}
			results, err := a.waitWithSpinner(cmd, api.CostReports(), args[0], f.pollEvery, f.timeout)
			if err != nil {
				return err
			}
			return a.render(results, fmt.Sprintf("Report %s results", args[0]), "cost_report")
		},
	}
	addWaitFlags(cmd, &f)
	return cmd
}

func addWaitFlags(cmd *cobra.Command, f *costFlags) {
	cmd.Flags().DurationVar(&f.pollEvery, "poll-interval", cloudability.DefaultPollInterval, "first wait between state checks")
	cmd.Flags().DurationVar(&f.timeout, "timeout", DefaultWaitTimeout, "give up waiting after this long (0 waits forever)")
}

// waitWithSpinner shows a spinner on stderr while the job runs
func (a *app) waitWithSpinner(cmd *cobra.Command, reports *cloudability.CostReports, rid string, interval, timeout time.Duration) (*cloudability.Report, error) {
	ctx := cmd.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	spinner, err := pterm.DefaultSpinner.WithWriter(a.stderr).Start(fmt.Sprintf("Waiting for report %s", rid))
	if err != nil {
		return nil, fmt.Errorf("failed to start spinner: %w", err)
	}

	results, err := reports.WaitForJob(ctx, rid, interval)
	if err != nil {
		spinner.Fail(fmt.Sprintf("Report %s did not finish", rid))
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("report %s not finished after %s: %w", rid, timeout, err)
		}
		return nil, err
	}
	spinner.Success(fmt.Sprintf("Report %s finished", rid))
	return results, nil
}

func addCostQueryFlags(cmd *cobra.Command, f *costFlags) {
	cmd.Flags().StringVar(&f.start, "start", "", "start date YYYY-MM-DD (default: first day of this month)")
	cmd.Flags().StringVar(&f.end, "end", "", "end date YYYY-MM-DD (default: today)")
	cmd.Flags().StringSliceVar(&f.dimensions, "dimensions", nil, "dimensions, comma separated")
	cmd.Flags().StringSliceVar(&f.metrics, "metrics", nil, "metrics, comma separated")
	cmd.Flags().StringVar(&f.sortBy, "sort-by", "", "metric or dimension to sort by")
	cmd.Flags().StringVar(&f.order, "order", "", "sort order: asc or desc")
	cmd.Flags().IntVar(&f.maxResults, "max-results", 0, "maximum number of rows")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "row offset")
	cmd.Flags().BoolVar(&f.chart, "chart", false, "request chart data")
}

// costQuery converts flags into a query, defaulting the range to month-to-date
func (a *app) costQuery(f costFlags) (cloudability.CostQuery, error) {
	start, end := clock.MonthToDate(a.clock)

	var err error
	if f.start != "" {
		if start, err = time.Parse(cloudability.DateFormat, f.start); err != nil {
			return cloudability.CostQuery{}, fmt.Errorf("invalid --start: %w", err)
		}
	}
	if f.end != "" {
		if end, err = time.Parse(cloudability.DateFormat, f.end); err != nil {
			return cloudability.CostQuery{}, fmt.Errorf("invalid --end: %w", err)
		}
	}
	if end.Before(start) {
		return cloudability.CostQuery{}, fmt.Errorf("end date %s is before start date %s",
			end.Format(cloudability.DateFormat), start.Format(cloudability.DateFormat))
	}

	return cloudability.CostQuery{
		Start:      start,
		End:        end,
		Dimensions: f.dimensions,
		Metrics:    f.metrics,
		SortBy:     f.sortBy,
		Order:      f.order,
		MaxResults: f.maxResults,
		Chart:      f.chart,
		Offset:     f.offset,
	}, nil
}

func costTitle(q cloudability.CostQuery) string {
	return fmt.Sprintf("Cost report %s to %s",
		q.Start.Format(cloudability.DateFormat), q.End.Format(cloudability.DateFormat))
}
