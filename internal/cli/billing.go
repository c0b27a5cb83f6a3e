package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// billingFlags overrides the billing section of the configuration
type billingFlags struct {
	by, service, vendor, period, credential, account string
}

func (a *app) newBillingCommand() *cobra.Command {
	var f billingFlags

	cmd := &cobra.Command{
		Use:   "billing",
		Short: "Print a billing report",
		Long: `Fetch /billing_reports grouped by a dimension (default "period").
Filters left empty are not sent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBilling(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.by, "by", "", "grouping dimension (defaults to billing.by)")
	cmd.Flags().StringVar(&f.service, "service", "", "service filter")
	cmd.Flags().StringVar(&f.vendor, "vendor", "", "vendor filter")
	cmd.Flags().StringVar(&f.period, "period", "", "period filter")
	cmd.Flags().StringVar(&f.credential, "credential", "", "credential filter")
	cmd.Flags().StringVar(&f.account, "account", "", "account filter")
	return cmd
}

func (a *app) runBilling(cmd *cobra.Command, f billingFlags) error {
	cfg, log, err := a.setup()
	if err != nil {
		return err
	}
	api, err := newAPI(cfg, log)
	if err != nil {
		return err
	}

	q := cfg.BillingQuery()
	if f.by != "" {
		q.By = f.by
	}
	for _, o := range []struct {
		value  string
		target *any
	}{
		{f.service, &q.Service},
		{f.vendor, &q.Vendor},
		{f.period, &q.Period},
		{f.credential, &q.Credential},
		{f.account, &q.Account},
	} {
		if o.value != "" {
			*o.target = o.value
		}
	}

	report, err := api.BillingReport(cmd.Context(), q)
	if err != nil {
		return err
	}
	return a.render(report, fmt.Sprintf("Billing report by %s", q.By), "billing")
}
