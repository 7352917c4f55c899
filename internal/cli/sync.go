package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push buffered submissions to the ledger",
		Long: `Push buffered submissions to the remote ledger in insertion order.
Entries that fail for a transient reason stay queued; entries the
server rejects outright are dropped as already applied.

Example:
  ddzledger sync`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			f := formatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			res, err := a.rec.SyncAll(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "sync pass failed", err)
			}

			if rootOpts.Format == "json" {
				_ = f.Success(res)
				if res.LastError != "" {
					return NewExitError(ExitFailure, res.LastError)
				}
				return nil
			}

			switch {
			case res.Failed > 0:
				_ = f.Success(fmt.Sprintf("Synced %d, %d still pending (%s)", res.Synced, res.Failed, res.LastError))
				return NewExitError(ExitFailure, res.LastError)
			case res.LastError != "":
				return NewExitError(ExitFailure, "not logged in; run \"ddzledger login\" first")
			default:
				return f.Success(fmt.Sprintf("Synced %d, queue empty", res.Synced))
			}
		},
	}
}
