package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Show client and deployed endpoint versions",
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
			remoteVersion, err := a.client.Version(cmd.Context())
			if err != nil {
				remoteVersion = "unreachable"
			}
			if rootOpts.Format == "json" {
				return f.Success(map[string]string{
					"client":   a.cfg.AppVersion,
					"endpoint": remoteVersion,
				})
			}
			return f.Success(fmt.Sprintf("client %s, endpoint %s", a.cfg.AppVersion, remoteVersion))
		},
	}
}
