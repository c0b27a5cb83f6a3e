package cloudability

import (
	"context"
	"os"
)

// Cloudability is the entry point: one method per report type. Nothing is
// cached; every call issues a fresh request.
type Cloudability struct {
	client *Client
}

// New creates a facade authenticating with token
func New(token string, opts ...Option) (*Cloudability, error) {
	c, err := NewClient(token, opts...)
	if err != nil {
		return nil, err
	}
	return &Cloudability{client: c}, nil
}

// NewFromEnv reads the token from CLOUDABILITY_API_TOKEN
func NewFromEnv(opts ...Option) (*Cloudability, error) {
	token, ok := os.LookupEnv(TokenEnv)
	if !ok || token == "" {
		return nil, ErrMissingToken
	}
	return New(token, opts...)
}

// Client returns the underlying API client
func (c *Cloudability) Client() *Client {
	return c.client
}

// BillingReport fetches a billing report
func (c *Cloudability) BillingReport(ctx context.Context, q BillingQuery) (*Report, error) {
	return BillingReports(ctx, c.client, q)
}

// ListCurrentCostReports lists the current cost reports
func (c *Cloudability) ListCurrentCostReports(ctx context.Context) (*Report, error) {
	return NewCostReports(c.client).Current(ctx)
}

// ListCostReportMeasures lists the cost report measures
func (c *Cloudability) ListCostReportMeasures(ctx context.Context) (*Report, error) {
	return NewCostReports(c.client).Measures(ctx)
}

// Organization fetches all organizations, or one when oid is set
func (c *Cloudability) Organization(ctx context.Context, oid string) (*Report, error) {
	return Organizations(ctx, c.client, oid)
}

// CostReports exposes the full cost reporting family
func (c *Cloudability) CostReports() *CostReports {
	return NewCostReports(c.client)
}
