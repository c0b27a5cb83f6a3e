package cloudability

import (
	"context"
	"errors"
	"testing"
)

func TestNewFromEnv(t *testing.T) {
	t.Setenv(TokenEnv, "")
	if _, err := NewFromEnv(); !errors.Is(err, ErrMissingToken) {
		t.Errorf("error = %v, want ErrMissingToken", err)
	}

	t.Setenv(TokenEnv, "env-token")
	cb, err := NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv() error = %v", err)
	}
	if cb.Client().token != "env-token" {
		t.Errorf("token = %q, want env-token", cb.Client().token)
	}
}

func TestFacade_Delegates(t *testing.T) {
	api := &fakeAPI{body: `[{"id": 1}]`}
	client := newTestClient(t, api)
	cb := &Cloudability{client: client}
	ctx := context.Background()

	tests := []struct {
		name string
		call func() (*Report, error)
		path string
		by   string
	}{
		{"BillingReport", func() (*Report, error) { return cb.BillingReport(ctx, BillingQuery{}) }, "/api/1/billing_reports", "period"},
		{"ListCurrentCostReports", func() (*Report, error) { return cb.ListCurrentCostReports(ctx) }, "/api/1/reporting/cost", ""},
		{"ListCostReportMeasures", func() (*Report, error) { return cb.ListCostReportMeasures(ctx) }, "/api/1/reporting/cost/measures", ""},
		{"Organization all", func() (*Report, error) { return cb.Organization(ctx, "") }, "/api/1/organizations", ""},
		{"Organization one", func() (*Report, error) { return cb.Organization(ctx, "org 1") }, "/api/1/organizations/org 1", ""},
		{"CostReports", func() (*Report, error) { return cb.CostReports().Filters(ctx) }, "/api/1/reporting/cost/filters", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := tt.call()
			if err != nil {
				t.Fatalf("%s error = %v", tt.name, err)
			}
			if report.Len() != 1 {
				t.Errorf("Len() = %d, want 1", report.Len())
			}
			req := api.Last(t)
			if req.Path != tt.path {
				t.Errorf("path = %q, want %q", req.Path, tt.path)
			}
			if got := req.Query.Get("by"); got != tt.by {
				t.Errorf("by = %q, want %q", got, tt.by)
			}
		})
	}
}

func TestFacade_NoCaching(t *testing.T) {
	api := &fakeAPI{body: `[]`}
	client := newTestClient(t, api)
	cb := &Cloudability{client: client}

	for i := 0; i < 3; i++ {
		if _, err := cb.Organization(context.Background(), ""); err != nil {
			t.Fatalf("Organization() error = %v", err)
		}
	}
	if n := len(api.Requests()); n != 3 {
		t.Errorf("requests = %d, want 3", n)
	}
}
