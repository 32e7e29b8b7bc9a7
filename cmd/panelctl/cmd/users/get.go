package users

import (
	"github.com/spf13/cobra"

	"github.com/Infinity2209/user/cmd/panelctl/internal/client"
	"github.com/Infinity2209/user/cmd/panelctl/internal/render"
	"github.com/Infinity2209/user/pkg/sdk"
)

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show one user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, users, err := resource(cmd.Context())
		if err != nil {
			return err
		}
		u, err := users.Get(cmd.Context(), args[0])
		if err != nil {
			return client.Explain(err)
		}
		if cfg.JSON() {
			return render.JSON(cmd.OutOrStdout(), u)
		}
		return render.Users(cmd.OutOrStdout(), []sdk.User{u})
	},
}
