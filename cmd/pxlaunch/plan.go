// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/spf13/cobra"

func newPlanCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show what a run would do on this machine without doing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o, cfg, err := app.orchestrator(cmd.Context())
			if err != nil {
				return app.fail(err, cfg)
			}
			renderPlan(app.stdout, o.Plan())
			return nil
		},
	}
}
