package users

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Infinity2209/user/cmd/panelctl/internal/client"
	"github.com/Infinity2209/user/cmd/panelctl/internal/render"
	"github.com/Infinity2209/user/cmd/panelctl/internal/where"
	"github.com/Infinity2209/user/pkg/sdk"
)

var (
	listSearch  string
	listRole    string
	listFilter  string
	listWhere   []string
	listPage    int
	listPerPage int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Example: `  panelctl users list --search graham
  panelctl users list --role admin
  panelctl users list --filter 'email matches "@company.com$"'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, users, err := resource(cmd.Context())
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

		all, err := users.List(cmd.Context())
		if err != nil {
			return client.Explain(err)
		}
		matched, err := sdk.FilterUsers(all, sdk.UserQuery{Search: listSearch, Role: listRole, Filter: where.Combine(listFilter, fields)})
		if err != nil {
			return err
		}
		page := sdk.Paginate(matched, listPage, listPerPage)

		if cfg.JSON() {
			return render.JSON(cmd.OutOrStdout(), page.Items)
		}
		if err := render.Users(cmd.OutOrStdout(), page.Items); err != nil {
			return err
		}
		render.PageFooter(cmd.OutOrStdout(), page.Page, page.TotalPages, page.TotalItems)
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listSearch, "search", "", "Match name or email, case-insensitive")
	listCmd.Flags().StringVar(&listRole, "role", sdk.AllRoles, "Only users with this role (admin, user or all)")
	listCmd.Flags().StringArrayVar(&listWhere, "where", nil, "Field equality (key=value), repeatable, ANDed with --filter")
	listCmd.Flags().StringVar(&listFilter, "filter", "", "bexpr filter over user fields")
	listCmd.Flags().IntVar(&listPage, "page", 1, "Page number, starting at 1")
	listCmd.Flags().IntVar(&listPerPage, "per-page", sdk.DefaultPerPage, "Users per page")
}
