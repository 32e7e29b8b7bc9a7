package accounts

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Infinity2209/user/cmd/panelapi/cmd/cmdutil"
	"github.com/Infinity2209/user/cmd/panelapi/internal/config"
	"github.com/Infinity2209/user/cmd/panelapi/internal/repository"
)

// AccountsCmd groups operator login account management.
var AccountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage login accounts",
	Long:  `Create and list the accounts that can sign in to the panel. Requires a durable database.`,
}

func init() {
	AccountsCmd.AddCommand(createCmd)
	AccountsCmd.AddCommand(listCmd)
}

func openAccounts() (repository.AccountRepository, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := cmdutil.OpenDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewBunAccountRepository(db), func() { _ = db.Close() }, nil
}
