package cli

import (
	"github.com/spf13/cobra"
)

func (a *app) newOrganizationsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "organizations [id]",
		Aliases: []string{"orgs"},
		Short:   "Print all organizations, or one by id",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.connect()
			if err != nil {
				return err
			}

			var oid string
			title := "Organizations"
			if len(args) == 1 {
				oid = args[0]
				title = "Organization " + oid
			}

			report, err := api.Organization(cmd.Context(), oid)
			if err != nil {
				return err
			}
			return a.render(report, title, "organizations")
		},
	}
}
