package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconciliation pass against the download client",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				summary, err := rt.downloads.Reconcile(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, summary)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Checked %d active releases, matched %d\n", summary.Checked, summary.Matched)
				fmt.Fprintf(out, "Hashes discovered: %d\n", summary.HashesDiscovered)
				fmt.Fprintf(out, "Completed: %d  Failed: %d  Downloading: %d\n", summary.Completed, summary.Failed, summary.Downloading)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
