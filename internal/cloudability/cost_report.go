package cloudability

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const costReportingResource = "/reporting/cost"

// Job polling constants
const (
	// DefaultPollInterval is the first wait between job state checks
	DefaultPollInterval = 2 * time.Second

	// MaxPollInterval caps the wait between job state checks
	MaxPollInterval = 30 * time.Second
)

var errJobPending = errors.New("report job still running")

// CostQuery describes a cost report run. Start and End are sent as dates.
type CostQuery struct {
	Start      time.Time
	End        time.Time
	Dimensions []string
	Metrics    []string
	SortBy     string
	Order      string
	MaxResults int
	Chart      bool
	Offset     int
}

// Params returns the query parameters shared by run and enqueue
func (q CostQuery) Params() Params {
	return Params{
		"start_date":  q.Start,
		"end_date":    q.End,
		"dimensions":  q.Dimensions,
		"metrics":     q.Metrics,
		"sort_by":     q.SortBy,
		"order":       q.Order,
		"offset":      q.Offset,
		"max_results": q.MaxResults,
		"chart":       q.Chart,
	}
}

// CostReports groups the cost reporting sub-resources. Every method issues
// exactly one request, except WaitForJob.
type CostReports struct {
	endpoint
}

// NewCostReports binds the cost reporting resource to c
func NewCostReports(c *Client) *CostReports {
	return &CostReports{endpoint{client: c, resource: costReportingResource}}
}

// Current lists the current cost reports
func (r *CostReports) Current(ctx context.Context) (*Report, error) {
	return r.report(ctx, "", nil)
}

// Measures lists the available dimensions and metrics
func (r *CostReports) Measures(ctx context.Context) (*Report, error) {
	return r.report(ctx, "/measures", nil)
}

// Filters lists the available filters
func (r *CostReports) Filters(ctx context.Context) (*Report, error) {
	return r.report(ctx, "/filters", nil)
}

// Run executes q synchronously
func (r *CostReports) Run(ctx context.Context, q CostQuery) (*Report, error) {
	return r.report(ctx, "/run", q.Params())
}

// Enqueue submits q as an asynchronous job. The result normally holds a job
// descriptor whose id is passed to CheckState and Results.
func (r *CostReports) Enqueue(ctx context.Context, q CostQuery) (*Report, error) {
	return r.report(ctx, "/enqueue", q.Params())
}

// CheckState fetches the state of job rid
func (r *CostReports) CheckState(ctx context.Context, rid string) (*Report, error) {
	return r.report(ctx, "/reports/"+url.PathEscape(rid)+"/state", nil)
}

// Results fetches the results of the completed job rid
func (r *CostReports) Results(ctx context.Context, rid string) (*Report, error) {
	return r.report(ctx, "/reports/"+url.PathEscape(rid)+"/results", nil)
}

// WaitForJob checks the state of job rid on an exponential schedule starting
// at interval until it finishes, then fetches its results. A failed request,
// a failed job or a state without a status ends the wait immediately. Other
// unknown statuses keep polling; only ctx bounds the total time.
func (r *CostReports) WaitForJob(ctx context.Context, rid string, interval time.Duration) (*Report, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = interval
	bo.MaxInterval = MaxPollInterval
	bo.MaxElapsedTime = 0

	log := r.client.logger.WithFields("report_id", rid)
	operation := func() error {
		state, err := r.CheckState(ctx, rid)
		if err != nil {
			return backoff.Permanent(err)
		}

		status := JobStatus(state)
		switch {
		case status == "":
			return backoff.Permanent(fmt.Errorf("%w: status of report %s", ErrFieldNotFound, rid))
		case jobFinished(status):
			return nil
		case jobFailed(status):
			return backoff.Permanent(fmt.Errorf("%w: report %s is %s", ErrJobFailed, rid, status))
		}
		log.Debug("Report job not finished yet", "status", status)
		return errJobPending
	}

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return r.Results(ctx, rid)
}

// JobStatus extracts the lower-cased job status from a state report. The API
// has used both "status" and "state" for this field.
func JobStatus(state *Report) string {
	head, err := state.Head()
	if err != nil {
		return ""
	}
	for _, key := range []string{"status", "state"} {
		if s, err := head.Text(key); err == nil && s != "" {
			return strings.ToLower(s)
		}
	}
	return ""
}

// JobID extracts the job identifier from an enqueue report
func JobID(enqueued *Report) (string, error) {
	head, err := enqueued.Head()
	if err != nil {
		return "", err
	}
	for _, key := range []string{"id", "report_id"} {
		if s, err := head.Text(key); err == nil && s != "" {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: id", ErrFieldNotFound)
}

func jobFinished(status string) bool {
	switch status {
	case "finished", "done", "complete", "completed", "success":
		return true
	}
	return false
}

func jobFailed(status string) bool {
	switch status {
	case "failed", "error", "errored", "cancelled", "canceled":
		return true
	}
	return false
}
