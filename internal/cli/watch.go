package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fllscore/ddzledger/internal/syncer"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the background sync loop",
		Long: `Health-check the endpoint on an interval and push buffered
submissions whenever it is reachable. Runs until interrupted.

Example:
  ddzledger watch
  ddzledger watch --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(rootOpts, cmd)
		},
	}
}

func runWatch(rootOpts *RootOptions, cmd *cobra.Command) error {
	a, err := newApp(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer a.Close()

	a.runner.OnResult = func(res syncer.Result) {
		if res.Failed > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d, %d still pending (%s)\n", res.Synced, res.Failed, res.LastError)
			return
		}
		if res.Synced > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d, queue empty\n", res.Synced)
		}
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			fmt.Fprintf(cmd.ErrOrStderr(), "received %s, stopping\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching; checking the ledger every %s. Press Ctrl-C to stop.\n", a.cfg.SyncInterval)

	// One eager pass before the ticker takes over.
	a.runner.CheckAndSync(ctx)

	err = a.runner.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "sync loop error", err)
	}
	return nil
}
