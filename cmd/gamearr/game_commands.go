package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gamearr/internal/store"
)

func newGameCommand(ctx *commandContext) *cobra.Command {
	gameCmd := &cobra.Command{
		Use:   "game",
		Short: "Manage wanted games",
	}
	gameCmd.AddCommand(newGameAddCommand(ctx))
	gameCmd.AddCommand(newGameListCommand(ctx))
	return gameCmd
}

func newGameAddCommand(ctx *commandContext) *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a wanted game",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withRuntime(func(rt *runtime) error {
				game, err := rt.store.CreateGame(cmd.Context(), store.NewGame{Title: title, Platform: platform})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added game %d: %s\n", game.ID, game.Title)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&platform, "platform", "p", "", "Platform the game is wanted for")
	return cmd
}

func newGameListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List wanted games",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := make([]store.GameStatus, 0, len(statuses))
			for _, s := range statuses {
				filters = append(filters, store.GameStatus(strings.ToLower(strings.TrimSpace(s))))
			}
			return ctx.withRuntime(func(rt *runtime) error {
				games, err := rt.store.ListGames(cmd.Context(), filters...)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, games)
				}
				out := cmd.OutOrStdout()
				if len(games) == 0 {
					fmt.Fprintln(out, "No games found")
					return nil
				}
				rows := make([][]string, 0, len(games))
				for _, game := range games {
					library := "-"
					if game.LibraryID != nil {
						library = strconv.FormatInt(*game.LibraryID, 10)
					}
					rows = append(rows, []string{
						strconv.FormatInt(game.ID, 10),
						game.Title,
						game.Platform,
						string(game.Status),
						library,
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"ID", "Title", "Platform", "Status", "Library"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by status (wanted, downloading, downloaded)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
