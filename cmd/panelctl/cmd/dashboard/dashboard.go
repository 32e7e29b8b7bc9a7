package dashboard

import (
	"github.com/spf13/cobra"

	"github.com/Infinity2209/user/cmd/panelctl/internal/client"
	"github.com/Infinity2209/user/cmd/panelctl/internal/config"
	"github.com/Infinity2209/user/cmd/panelctl/internal/render"
)

// DashboardCmd prints the landing summary for the signed-in role.
var DashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show catalogue and user totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		c, err := cfg.SDKClient(cmd.Context())
		if err != nil {
			return err
		}

		d, err := c.Dashboard(cmd.Context())
		if err != nil {
			return client.Explain(err)
		}
		if cfg.JSON() {
			return render.JSON(cmd.OutOrStdout(), d)
		}
		return render.Dashboard(cmd.OutOrStdout(), d)
	},
}
