package products

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Infinity2209/user/cmd/panelctl/internal/config"
	"github.com/Infinity2209/user/pkg/sdk"
)

// ProductsCmd is the parent command for the product catalogue.
var ProductsCmd = &cobra.Command{
	Use:   "products",
	Short: "Browse and manage products",
	Long:  `Browse the product catalogue. Creating, updating and deleting products needs the admin role.`,
}

func init() {
	ProductsCmd.AddCommand(listCmd)
	ProductsCmd.AddCommand(getCmd)
	ProductsCmd.AddCommand(createCmd)
	ProductsCmd.AddCommand(updateCmd)
	ProductsCmd.AddCommand(deleteCmd)
	ProductsCmd.AddCommand(categoriesCmd)
}

func resource(ctx context.Context) (*config.GlobalConfig, *sdk.Resource[sdk.Product, sdk.ProductPatch], error) {
	cfg := config.MustFromContext(ctx)
	c, err := cfg.SDKClient(ctx)
	if err != nil {
		return nil, nil, err
	}
	return cfg, c.Products(), nil
}
