package products

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Infinity2209/user/cmd/panelctl/internal/client"
	"github.com/Infinity2209/user/cmd/panelctl/internal/render"
	"github.com/Infinity2209/user/cmd/panelctl/internal/where"
	"github.com/Infinity2209/user/pkg/sdk"
)

var (
	listSearch   string
	listCategory string
	listMinPrice float64
	listMaxPrice float64
	listFilter   string
	listWhere    []string
	listPage     int
	listPerPage  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List products",
	Example: `  panelctl products list --search backpack
  panelctl products list --category jewelery --max-price 200
  panelctl products list --filter 'category == "electronics"' --page 2
  panelctl products list --where category=jewelery --where price=168`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, products, err := resource(cmd.Context())
		if err != nil {
			return err
		}

		fields, warnings, err := where.Parse(listWhere)
		if err != nil {
			return err
		}
		for _, warning := range warnings {
			pterm.Warning.Println(warning)
		}

		q := sdk.ProductQuery{Search: listSearch, Category: listCategory, Filter: where.Combine(listFilter, fields)}
		if cmd.Flags().Changed("min-price") {
			q.MinPrice = &listMinPrice
		}
		if cmd.Flags().Changed("max-price") {
			q.MaxPrice = &listMaxPrice
		}

		all, err := products.List(cmd.Context())
		if err != nil {
			return client.Explain(err)
		}
		matched, err := sdk.FilterProducts(all, q)
		if err != nil {
			return err
		}
		page := sdk.Paginate(matched, listPage, listPerPage)

		if cfg.JSON() {
			return render.JSON(cmd.OutOrStdout(), page.Items)
		}
		if err := render.Products(cmd.OutOrStdout(), page.Items); err != nil {
			return err
		}
		render.PageFooter(cmd.OutOrStdout(), page.Page, page.TotalPages, page.TotalItems)
		return nil
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the distinct product categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, products, err := resource(cmd.Context())
		if err != nil {
			return err
		}
		all, err := products.List(cmd.Context())
		if err != nil {
			return client.Explain(err)
		}
		categories := sdk.Categories(all)
		if cfg.JSON() {
			return render.JSON(cmd.OutOrStdout(), categories)
		}
		return render.Categories(cmd.OutOrStdout(), categories)
	},
}

func init() {
	listCmd.Flags().StringVar(&listSearch, "search", "", "Match title, case-insensitive")
	listCmd.Flags().StringVar(&listCategory, "category", "", "Only products in this category")
	listCmd.Flags().Float64Var(&listMinPrice, "min-price", 0, "Lowest price to include")
	listCmd.Flags().Float64Var(&listMaxPrice, "max-price", 0, "Highest price to include")
	listCmd.Flags().StringArrayVar(&listWhere, "where", nil, "Field equality (key=value), repeatable, ANDed with --filter")
	listCmd.Flags().StringVar(&listFilter, "filter", "", "bexpr filter over product fields")
	listCmd.Flags().IntVar(&listPage, "page", 1, "Page number, starting at 1")
	listCmd.Flags().IntVar(&listPerPage, "per-page", sdk.DefaultPerPage, "Products per page")
}
