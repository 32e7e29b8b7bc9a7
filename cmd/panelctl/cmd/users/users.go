package users

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Infinity2209/user/cmd/panelctl/internal/config"
	"github.com/Infinity2209/user/pkg/sdk"
)

// UsersCmd is the parent command for user management. Every subcommand needs the admin role.
var UsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users",
}

func init() {
	UsersCmd.AddCommand(listCmd)
	UsersCmd.AddCommand(getCmd)
	UsersCmd.AddCommand(createCmd)
	UsersCmd.AddCommand(updateCmd)
	UsersCmd.AddCommand(deleteCmd)
}

func resource(ctx context.Context) (*config.GlobalConfig, *sdk.Resource[sdk.User, sdk.UserPatch], error) {
	cfg := config.MustFromContext(ctx)
	c, err := cfg.SDKClient(ctx)
	if err != nil {
		return nil, nil, err
	}
	return cfg, c.Users(), nil
}
