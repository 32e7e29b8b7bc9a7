package auth

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Infinity2209/user/cmd/panelctl/internal/client"
	"github.com/Infinity2209/user/cmd/panelctl/internal/config"
	"github.com/Infinity2209/user/pkg/sdk"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		c, err := cfg.SDKClient(cmd.Context())
		if err != nil {
			return err
		}

		if c.Session().State() == sdk.Anonymous {
			pterm.Info.Println("Not signed in")
			return nil
		}
		if err := c.Logout(cmd.Context()); err != nil {
			// The local session is gone either way.
			pterm.Warning.Printf("Signed out locally; server did not confirm: %v\n", client.Explain(err))
			return nil
		}
		pterm.Success.Println("Signed out")
		return nil
	},
}
