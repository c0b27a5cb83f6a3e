package cloudability

import "context"

const billingReportsResource = "/billing_reports"

// DefaultBillingGrouping is used when BillingQuery.By is empty
const DefaultBillingGrouping = "period"

// BillingQuery selects a billing report. Filters left nil are sent as
// explicit nulls (see Params).
type BillingQuery struct {
	By         string
	Service    any
	Vendor     any
	Period     any
	Credential any
	Account    any
}

// Params returns the full parameter set, always carrying all six keys
func (q BillingQuery) Params() Params {
	by := q.By
	if by == "" {
		by = DefaultBillingGrouping
	}
	return Params{
		"by":         by,
		"service":    q.Service,
		"vendor":     q.Vendor,
		"period":     q.Period,
		"credential": q.Credential,
		"account":    q.Account,
	}
}

// BillingReports fetches the billing report described by q
func BillingReports(ctx context.Context, c *Client, q BillingQuery) (*Report, error) {
	return endpoint{client: c, resource: billingReportsResource}.report(ctx, "", q.Params())
}
