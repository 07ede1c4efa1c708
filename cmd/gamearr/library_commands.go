package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"gamearr/internal/store"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "Manage platform libraries",
	}
	libraryCmd.AddCommand(newLibraryAddCommand(ctx))
	libraryCmd.AddCommand(newLibraryListCommand(ctx))
	return libraryCmd
}

func newLibraryAddCommand(ctx *commandContext) *cobra.Command {
	var in store.NewLibrary

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = args[0]
			return ctx.withRuntime(func(rt *runtime) error {
				lib, err := rt.store.CreateLibrary(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added library %d: %s\n", lib.ID, lib.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&in.Platform, "platform", "p", "", "Platform served by this library")
	cmd.Flags().StringVar(&in.DownloadCategory, "category", "", "Download category override for games in this library")
	cmd.Flags().BoolVar(&in.IsDefault, "default", false, "Use for games whose platform matches no library")
	return cmd
}

func newLibraryListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List libraries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				libraries, err := rt.store.ListLibraries(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, libraries)
				}
				out := cmd.OutOrStdout()
				if len(libraries) == 0 {
					fmt.Fprintln(out, "No libraries configured")
					return nil
				}
				rows := make([][]string, 0, len(libraries))
				for _, lib := range libraries {
					category := lib.DownloadCategory
					if category == "" {
						category = "-"
					}
					rows = append(rows, []string{
						strconv.FormatInt(lib.ID, 10),
						lib.Name,
						lib.Platform,
						category,
						yesNo(lib.IsDefault),
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"ID", "Name", "Platform", "Category", "Default"},
					rows,
					[]columnAlignment{alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
