package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fllscore/ddzledger/internal/ledger"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Offset int
	Limit  int
	Round  bool
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded games, newest first",
		Long: `Show recorded games, newest first. Buffered local submissions
appear on top of the first page, marked pending. When the endpoint is
unreachable the cached first page is shown instead.

Example:
  ddzledger history --limit 10
  ddzledger history --round`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "records to skip")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "records per page")
	cmd.Flags().BoolVar(&opts.Round, "round", false, "show only the current round")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	a, err := newApp(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	f := formatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.Round {
		round, err := a.svc.Round(cmd.Context())
		if err != nil {
			_ = f.Error(ErrorCodeOf(err), err.Error(), nil)
			return WrapExitError(ExitFailure, "failed to load current round", err)
		}
		if opts.Format == "json" {
			return f.Success(round)
		}
		printRecords(f, round)
		return nil
	}

	view, err := a.svc.History(cmd.Context(), opts.Offset, opts.Limit)
	if err != nil {
		_ = f.Error(ErrorCodeOf(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to load history", err)
	}
	if opts.Format == "json" {
		return f.Success(view)
	}

	if view.FromCache {
		fmt.Fprintln(f.GetErrWriter(), "(offline: showing cached records)")
	}
	printRecords(f, view.Records)
	if view.HasMore {
		fmt.Fprintf(f.Writer, "... %d games total\n", view.Total)
	}
	return nil
}

func printRecords(f *OutputFormatter, records []ledger.EnrichedGameRecord) {
	w := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTIME\tLANDLORD\tFARMERS\tSCORE\t")
	for _, r := range records {
		marker := ""
		if r.IsPending {
			marker = " (pending)"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s, %s\t%+d%s\t\n",
			r.GameNumber, r.Timestamp, r.Landlord, r.Farmer1, r.Farmer2, r.LandlordScore, marker)
	}
	w.Flush()
}
