package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fllscore/ddzledger/internal/undo"
)

// NewUndoCommand creates the undo command.
func NewUndoCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Reverse the most recent submission",
		Long: `Reverse the most recent submission, within 60 seconds of entering
it. A buffered submission is dropped from the local queue; a confirmed
one is deleted from the remote ledger.

Example:
  ddzledger undo`,
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
			action, err := a.svc.Undo(cmd.Context())
			if err != nil {
				if errors.Is(err, undo.ErrNotArmed) {
					return NewExitError(ExitFailure, "nothing to undo (the 60-second window may have elapsed)")
				}
				_ = f.Error(ErrorCodeOf(err), err.Error(), nil)
				return WrapExitError(ExitFailure, "undo failed; the window stays open, try again", err)
			}

			if rootOpts.Format == "json" {
				return f.Success(action)
			}
			where := "remote ledger"
			if action.Local() {
				where = "local queue"
			}
			return f.Success(fmt.Sprintf("Reversed %s vs %s, %s (%+d) from the %s",
				action.Landlord, action.Farmer1, action.Farmer2, action.LandlordScore, where))
		},
	}
}
