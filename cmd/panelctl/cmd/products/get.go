package products

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Infinity2209/user/cmd/panelctl/internal/client"
	"github.com/Infinity2209/user/cmd/panelctl/internal/render"
	"github.com/Infinity2209/user/pkg/sdk"
)

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show one product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, products, err := resource(cmd.Context())
		if err != nil {
			return err
		}
		p, err := products.Get(cmd.Context(), args[0])
		if err != nil {
			return client.Explain(err)
		}
		if cfg.JSON() {
			return render.JSON(cmd.OutOrStdout(), p)
		}
		if err := render.Products(cmd.OutOrStdout(), []sdk.Product{p}); err != nil {
			return err
		}
		if p.Description != "" {
			fmt.Fprintln(cmd.OutOrStdout(), p.Description)
		}
		return nil
	},
}
