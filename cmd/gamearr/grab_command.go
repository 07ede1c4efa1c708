package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"gamearr/internal/downloads"
)

func newGrabCommand(ctx *commandContext) *cobra.Command {
	var (
		title   string
		indexer string
		quality string
		size    int64
		seeders int
		noWait  bool
	)

	cmd := &cobra.Command{
		Use:   "grab <game-id> <download-url>",
		Short: "Submit a release for a game to the download client",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid game id %q", args[0])
			}
			candidate := downloads.ReleaseCandidate{
				Title:       title,
				DownloadURL: args[1],
				Indexer:     indexer,
				Quality:     quality,
			}
			if cmd.Flags().Changed("size") {
				candidate.Size = &size
			}
			if cmd.Flags().Changed("seeders") {
				candidate.Seeders = &seeders
			}

			return ctx.withRuntime(func(rt *runtime) error {
				out := cmd.OutOrStdout()
				result, err := rt.downloads.GrabRelease(cmd.Context(), gameID, candidate)
				if err != nil {
					if result.ReleaseID > 0 {
						fmt.Fprintf(out, "Release %d recorded as failed\n", result.ReleaseID)
					}
					return err
				}
				if result.DryRun() {
					fmt.Fprintln(out, "Dry run enabled; release not submitted")
					return nil
				}
				fmt.Fprintf(out, "Release %d submitted\n", result.ReleaseID)
				if result.Hash != "" {
					fmt.Fprintf(out, "Torrent hash: %s\n", result.Hash)
					return nil
				}
				if noWait {
					fmt.Fprintln(out, "Torrent hash will be matched on the next reconciliation pass")
					return nil
				}

				fmt.Fprintln(out, "Waiting for the download client to report the torrent...")
				rt.downloads.Wait()
				rel, err := rt.store.GetRelease(cmd.Context(), result.ReleaseID)
				if err != nil {
					return err
				}
				if rel != nil && rel.TorrentHash != "" {
					fmt.Fprintf(out, "Torrent hash: %s\n", rel.TorrentHash)
				} else {
					fmt.Fprintln(out, "Torrent hash not found yet; reconciliation will keep matching it")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Release title (required)")
	cmd.Flags().StringVar(&indexer, "indexer", "manual", "Indexer the release came from")
	cmd.Flags().StringVar(&quality, "quality", "", "Release quality label")
	cmd.Flags().Int64Var(&size, "size", 0, "Release size in bytes")
	cmd.Flags().IntVar(&seeders, "seeders", 0, "Seeder count reported by the indexer")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Return without waiting for hash discovery")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}
