package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List login accounts with their roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeDB, err := openAccounts()
		if err != nil {
			return err
		}
		defer closeDB()

		accounts, err := repo.List(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list accounts: %w", err)
		}
		if len(accounts) == 0 {
			pterm.Info.Println("No accounts found")
			return nil
		}

		rows := pterm.TableData{{"EMAIL", "NAME", "ROLE", "CREATED_AT", "LAST_LOGIN"}}
		for _, a := range accounts {
			lastLogin := "never"
			if a.LastLoginAt != nil {
				lastLogin = a.LastLoginAt.Format(time.RFC3339)
			}
			rows = append(rows, []string{a.Email, a.Name, a.Role, a.CreatedAt.Format(time.RFC3339), lastLogin})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}
