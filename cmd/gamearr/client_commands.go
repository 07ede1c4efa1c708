package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gamearr/internal/services"
)

func newClientCommand(ctx *commandContext) *cobra.Command {
	clientCmd := &cobra.Command{
		Use:   "client",
		Short: "Download client utilities",
	}
	clientCmd.AddCommand(newClientTestCommand(ctx))
	clientCmd.AddCommand(newClientCategoriesCommand(ctx))
	return clientCmd
}

func newClientTestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Check that qBittorrent is reachable with the configured credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				out := cmd.OutOrStdout()
				if !rt.client.Configured() {
					fmt.Fprintln(out, "qBittorrent is not configured (set qbittorrent.url or QBITTORRENT_URL)")
					return services.Wrap(services.ErrConfiguration, "cli", "client test", "download client is not configured", nil)
				}
				version, err := rt.client.Version(cmd.Context())
				if err != nil {
					fmt.Fprintf(out, "qBittorrent at %s: unreachable\n", rt.cfg.QBittorrent.URL)
					return err
				}
				fmt.Fprintf(out, "qBittorrent at %s: ok (version %s)\n", rt.cfg.QBittorrent.URL, version)
				return nil
			})
		},
	}
}

func newClientCategoriesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories defined in the download client",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				categories, err := rt.client.ListCategories(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(categories) == 0 {
					fmt.Fprintln(out, "No categories defined")
					return nil
				}
				for _, name := range categories {
					fmt.Fprintln(out, name)
				}
				return nil
			})
		},
	}
}
