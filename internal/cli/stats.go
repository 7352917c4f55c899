package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Range string
}

// statsRanges are the ranges the endpoint accepts.
var statsRanges = []string{"all", "year", "month", "week"}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate player statistics",
		Long: `Show aggregate player statistics for a range. Buffered local
submissions are folded into the totals; rows including them are marked.

Example:
  ddzledger stats
  ddzledger stats --range month`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Range, "range", "all", "stats range (all|year|month|week)")

	return cmd
}

func runStats(opts *StatsOptions, cmd *cobra.Command) error {
	valid := false
	for _, r := range statsRanges {
		if r == opts.Range {
			valid = true
			break
		}
	}
	if !valid {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid range %q: must be one of %v", opts.Range, statsRanges))
	}

	a, err := newApp(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	f := formatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	view, err := a.svc.Stats(cmd.Context(), opts.Range)
	if err != nil {
		_ = f.Error(ErrorCodeOf(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to load stats", err)
	}
	if opts.Format == "json" {
		return f.Success(view)
	}

	if view.FromCache {
		fmt.Fprintln(f.GetErrWriter(), "(offline: showing cached stats)")
	}
	w := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PLAYER\tTOTAL\tAVG\tGAMES\tWIN%\t")
	for _, row := range view.Rows {
		marker := ""
		if row.HasPendingData {
			marker = " *"
		}
		fmt.Fprintf(w, "%s%s\t%+d\t%.1f\t%d\t%.0f\t\n",
			row.Name, marker, row.TotalScore, row.AvgScore, row.GamesPlayed, row.WinRate)
	}
	w.Flush()
	return nil
}
