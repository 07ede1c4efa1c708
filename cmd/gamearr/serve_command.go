package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gamearr/internal/daemon"
	"gamearr/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the reconciliation daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runServe(runCtx, ctx)
		},
	}
}

func runServe(ctx context.Context, cmdCtx *commandContext) error {
	rt, err := cmdCtx.openRuntime(true)
	if err != nil {
		return err
	}

	d, err := daemon.New(rt.cfg, rt.store, rt.downloads, rt.notifier, rt.metrics, rt.logger)
	if err != nil {
		rt.Close()
		return fmt.Errorf("create daemon: %w", err)
	}

	if err := d.Start(ctx); err != nil {
		rt.Close()
		return fmt.Errorf("start daemon: %w", err)
	}

	<-ctx.Done()
	rt.logger.Info("gamearr shutting down", logging.String(logging.FieldEventType, "shutdown"))
	d.Stop()
	rt.Close()
	return nil
}
