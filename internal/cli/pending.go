package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// PendingOptions holds flags for the pending command.
type PendingOptions struct {
	*RootOptions
	Clear bool
}

// NewPendingCommand creates the pending command.
func NewPendingCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PendingOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List buffered submissions waiting for sync",
		Long: `List buffered submissions waiting for sync, in the order they will
be pushed. --clear discards them all without syncing; the games are
then lost unless re-entered.

Example:
  ddzledger pending
  ddzledger pending --clear`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPending(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Clear, "clear", false, "discard every buffered submission")

	return cmd
}

func runPending(opts *PendingOptions, cmd *cobra.Command) error {
	a, err := newApp(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	f := formatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.Clear {
		n, err := a.svc.PendingCount(cmd.Context())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read pending queue", err)
		}
		if err := a.svc.ClearPending(cmd.Context()); err != nil {
			return WrapExitError(ExitCommandError, "failed to clear pending queue", err)
		}
		return f.Success(fmt.Sprintf("Discarded %d buffered submission(s)", n))
	}

	queued, err := a.svc.Pending(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read pending queue", err)
	}
	if opts.Format == "json" {
		return f.Success(queued)
	}
	if len(queued) == 0 {
		return f.Success("No buffered submissions")
	}

	w := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tLANDLORD\tFARMERS\tSCORE\t")
	for _, p := range queued {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s, %s\t%+d\t\n",
			p.ID, p.Timestamp, p.Landlord, p.Farmer1, p.Farmer2, p.LandlordScore)
	}
	w.Flush()
	return nil
}
