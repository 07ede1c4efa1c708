package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gamearr/internal/store"
)

func newReleaseCommand(ctx *commandContext) *cobra.Command {
	releaseCmd := &cobra.Command{
		Use:   "release",
		Short: "Inspect and manage grabbed releases",
	}
	releaseCmd.AddCommand(newReleaseListCommand(ctx))
	releaseCmd.AddCommand(newReleaseActionCommand(ctx, "pause", "Pause a release's torrent", func(rt *runtime, cmd *cobra.Command, id int64) error {
		return rt.downloads.PauseRelease(cmd.Context(), id)
	}, "Paused"))
	releaseCmd.AddCommand(newReleaseActionCommand(ctx, "resume", "Resume a release's torrent", func(rt *runtime, cmd *cobra.Command, id int64) error {
		return rt.downloads.ResumeRelease(cmd.Context(), id)
	}, "Resumed"))
	releaseCmd.AddCommand(newReleaseRemoveCommand(ctx))
	return releaseCmd
}

func newReleaseListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var gameID int64
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List releases",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := parseReleaseStatuses(statuses)
			if err != nil {
				return err
			}
			return ctx.withRuntime(func(rt *runtime) error {
				var releases []*store.Release
				if gameID > 0 {
					releases, err = rt.store.ReleasesForGame(cmd.Context(), gameID)
					releases = filterReleases(releases, filters)
				} else {
					releases, err = rt.store.ListReleases(cmd.Context(), filters...)
				}
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, releases)
				}
				out := cmd.OutOrStdout()
				if len(releases) == 0 {
					fmt.Fprintln(out, "No releases found")
					return nil
				}
				rows := make([][]string, 0, len(releases))
				for _, rel := range releases {
					rows = append(rows, []string{
						strconv.FormatInt(rel.ID, 10),
						strconv.FormatInt(rel.GameID, 10),
						rel.Title,
						string(rel.Status),
						formatSize(rel.Size),
						shortHash(rel.TorrentHash),
						rel.GrabbedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"ID", "Game", "Title", "Status", "Size", "Hash", "Grabbed"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by status (pending, downloading, completed, failed)")
	cmd.Flags().Int64Var(&gameID, "game", 0, "Only show releases for this game id")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newReleaseActionCommand(ctx *commandContext, use, short string, action func(*runtime, *cobra.Command, int64) error, done string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <release-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseReleaseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withRuntime(func(rt *runtime) error {
				if err := action(rt, cmd, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s release %d\n", done, id)
				return nil
			})
		},
	}
}

func newReleaseRemoveCommand(ctx *commandContext) *cobra.Command {
	var deleteFiles bool

	cmd := &cobra.Command{
		Use:   "remove <release-id>",
		Short: "Remove a release's torrent from the download client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseReleaseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withRuntime(func(rt *runtime) error {
				if err := rt.downloads.RemoveRelease(cmd.Context(), id, deleteFiles); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if deleteFiles {
					fmt.Fprintf(out, "Removed release %d and its files\n", id)
				} else {
					fmt.Fprintf(out, "Removed release %d\n", id)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&deleteFiles, "delete-files", false, "Also delete downloaded data")
	return cmd
}

func parseReleaseID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid release id %q", value)
	}
	return id, nil
}

func parseReleaseStatuses(values []string) ([]store.ReleaseStatus, error) {
	out := make([]store.ReleaseStatus, 0, len(values))
	for _, value := range values {
		status := store.ReleaseStatus(strings.ToLower(strings.TrimSpace(value)))
		if status == "" {
			continue
		}
		if !status.Valid() {
			return nil, fmt.Errorf("unknown release status %q", value)
		}
		out = append(out, status)
	}
	return out, nil
}

func filterReleases(releases []*store.Release, statuses []store.ReleaseStatus) []*store.Release {
	if len(statuses) == 0 {
		return releases
	}
	filtered := releases[:0]
	for _, rel := range releases {
		for _, status := range statuses {
			if rel.Status == status {
				filtered = append(filtered, rel)
				break
			}
		}
	}
	return filtered
}

func shortHash(hash string) string {
	if hash == "" {
		return "-"
	}
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func formatSize(size *int64) string {
	if size == nil {
		return "-"
	}
	const unit = 1024
	value := float64(*size)
	units := []string{"B", "KiB", "MiB", "GiB", "TiB"}
	i := 0
	for value >= unit && i < len(units)-1 {
		value /= unit
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", *size)
	}
	return fmt.Sprintf("%.1f %s", value, units[i])
}
