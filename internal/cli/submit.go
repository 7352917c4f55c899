package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fllscore/ddzledger/internal/service"
)

// SubmitOptions holds flags for the submit command.
type SubmitOptions struct {
	*RootOptions
	Landlord string
	Farmer1  string
	Farmer2  string
	Score    int
	Last     bool
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SubmitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Record one game",
		Long: `Record one game on the shared ledger. The landlord's score is the
stake they won (negative when the farmers won); each farmer takes half
the opposite. When the endpoint is unreachable the game is buffered
locally and synced later.

The submission can be undone for 60 seconds.

Example:
  ddzledger submit --landlord alice --farmer1 bob --farmer2 carol --score 4
  ddzledger submit --last --score -6`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Landlord, "landlord", "", "landlord player name")
	cmd.Flags().StringVar(&opts.Farmer1, "farmer1", "", "first farmer player name")
	cmd.Flags().StringVar(&opts.Farmer2, "farmer2", "", "second farmer player name")
	cmd.Flags().IntVar(&opts.Score, "score", 0, "landlord score (required)")
	cmd.Flags().BoolVar(&opts.Last, "last", false, "reuse the seating of the previous submission")
	_ = cmd.MarkFlagRequired("score")

	return cmd
}

func runSubmit(opts *SubmitOptions, cmd *cobra.Command) error {
	a, err := newApp(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	landlord, farmer1, farmer2 := opts.Landlord, opts.Farmer1, opts.Farmer2
	if opts.Last {
		combo, ok, err := a.svc.LastCombo(cmd.Context())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read previous seating", err)
		}
		if !ok {
			return NewExitError(ExitCommandError, "--last requires a previous submission")
		}
		landlord, farmer1, farmer2 = combo.Landlord, combo.Farmer1, combo.Farmer2
	}

	f := formatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	out, err := a.svc.SubmitGame(cmd.Context(), landlord, farmer1, farmer2, opts.Score)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPlayers) {
			return WrapExitError(ExitCommandError, "invalid seating", err)
		}
		_ = f.Error(ErrorCodeOf(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "submit failed", err)
	}

	if opts.Format == "json" {
		return f.Success(out)
	}
	switch {
	case out.Queued:
		return f.Success(fmt.Sprintf("Buffered locally (pending %s); will sync when the ledger is reachable", out.PendingID))
	case out.ValidationWarning:
		return f.Success(fmt.Sprintf("Recorded at %s (the remote store flagged a benign validation warning)", out.Timestamp))
	default:
		return f.Success("Recorded at " + out.Timestamp)
	}
}
