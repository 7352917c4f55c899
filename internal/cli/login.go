package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Verify access and start a session",
		Long: `Verify the email against the remote access list and cache the
resulting session locally. Sessions expire after 24 hours.

Example:
  ddzledger login alice@example.com`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			email := strings.TrimSpace(args[0])
			if email == "" || !strings.Contains(email, "@") {
				return NewExitError(ExitCommandError, fmt.Sprintf("%q does not look like an email address", args[0]))
			}

			a, err := newApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			f := formatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			sess, err := a.svc.Login(cmd.Context(), email)
			if err != nil {
				_ = f.Error(ErrorCodeOf(err), err.Error(), nil)
				return WrapExitError(ExitFailure, "login failed", err)
			}
			return f.Success(fmt.Sprintf("Logged in as %s (%s)", sess.Email, sess.Role))
		},
	}
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the cached session",
		Long: `Clear the cached session. Buffered submissions stay queued and
sync after the next login.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.svc.Logout(cmd.Context()); err != nil {
				return WrapExitError(ExitCommandError, "failed to clear session", err)
			}
			return formatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr()).Success("Logged out")
		},
	}
}
