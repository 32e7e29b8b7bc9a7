package auth

import (
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Infinity2209/user/cmd/panelctl/internal/client"
	"github.com/Infinity2209/user/cmd/panelctl/internal/config"
	"github.com/Infinity2209/user/cmd/panelctl/internal/render"
	"github.com/Infinity2209/user/pkg/sdk"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display authentication status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		c, err := cfg.SDKClient(cmd.Context())
		if err != nil {
			return err
		}

		if c.Session().State() == sdk.Anonymous {
			if cfg.JSON() {
				return render.JSON(cmd.OutOrStdout(), map[string]string{"state": sdk.Anonymous.String()})
			}
			pterm.Info.Println("Not signed in. Run `panelctl auth login`.")
			return nil
		}

		who, err := c.WhoAmI(cmd.Context())
		if err != nil {
			return client.Explain(err)
		}
		if cfg.JSON() {
			return render.JSON(cmd.OutOrStdout(), who)
		}

		pterm.DefaultSection.Println("Authentication Status")
		pterm.Info.Printf("Server: %s\n", c.BaseURL())
		pterm.Info.Printf("Signed in as %s (%s)\n", who.User.Name, who.User.Email)
		pterm.Info.Printf("Role: %s\n", who.User.Role)
		if !who.ExpiresAt.IsZero() {
			pterm.Info.Printf("Token expires at: %s\n", who.ExpiresAt.Local().Format(time.RFC1123))
		}
		pterm.DefaultSection.Println("Capabilities")
		pterm.Println(strings.Join(who.Capabilities, "\n"))
		return nil
	},
}
