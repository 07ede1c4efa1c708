package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gamearr/internal/settings"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "View or override runtime download settings",
	}
	settingsCmd.AddCommand(newSettingsGetCommand(ctx))
	settingsCmd.AddCommand(newSettingsSetCommand(ctx))
	return settingsCmd
}

func newSettingsGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Show effective settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := settings.Keys()
			if len(args) == 1 {
				keys = []string{args[0]}
			}
			return ctx.withRuntime(func(rt *runtime) error {
				out := cmd.OutOrStdout()
				for _, key := range keys {
					value, stored, err := rt.settings.Get(cmd.Context(), key)
					if err != nil {
						return err
					}
					source := "config"
					if stored {
						source = "override"
					}
					fmt.Fprintf(out, "%s = %q (%s)\n", key, value, source)
				}
				return nil
			})
		},
	}
}

func newSettingsSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> [value]",
		Short: "Store a settings override; omit the value to clear it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := ""
			if len(args) == 2 {
				value = args[1]
			}
			return ctx.withRuntime(func(rt *runtime) error {
				if err := rt.settings.Set(cmd.Context(), key, value); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if value == "" {
					fmt.Fprintf(out, "Cleared override for %s\n", key)
				} else {
					fmt.Fprintf(out, "Set %s\n", key)
				}
				return nil
			})
		},
	}
}
