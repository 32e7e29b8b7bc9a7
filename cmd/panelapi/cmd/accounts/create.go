package accounts

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Infinity2209/user/cmd/panelapi/internal/auth"
	"github.com/Infinity2209/user/cmd/panelapi/internal/db/bunx"
	"github.com/Infinity2209/user/cmd/panelapi/internal/db/models"
	"github.com/Infinity2209/user/cmd/panelapi/internal/repository"
	"github.com/Infinity2209/user/pkg/access"
)

var (
	nameInput     string
	roleInput     string
	passwordInput string
)

var validRoles = []string{access.RoleAdmin, access.RoleUser}

var createCmd = &cobra.Command{
	Use:   "create [email]",
	Short: "Create a login account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := strings.TrimSpace(args[0])
		if !strings.Contains(email, "@") {
			return fmt.Errorf("invalid email %q", email)
		}
		if !slices.Contains(validRoles, roleInput) {
			return fmt.Errorf("invalid role %q\nValid roles are: %s", roleInput, strings.Join(validRoles, ", "))
		}

		password := passwordInput
		generated := password == ""
		if generated {
			var err error
			if password, err = randomPassword(); err != nil {
				return err
			}
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}

		repo, closeDB, err := openAccounts()
		if err != nil {
			return err
		}
		defer closeDB()

		account := &models.Account{
			ID:           bunx.NewUUIDv7(),
			Email:        email,
			Name:         nameInput,
			Role:         roleInput,
			PasswordHash: hash,
		}
		if err := repo.Create(context.Background(), account); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return fmt.Errorf("an account for %s already exists", email)
			}
			return fmt.Errorf("failed to create account: %w", err)
		}

		pterm.Success.Println("Account created successfully!")
		pterm.Println("----------------------------------------")
		pterm.Printf("ID:    %s\n", account.ID)
		pterm.Printf("Email: %s\n", account.Email)
		pterm.Printf("Role:  %s\n", account.Role)
		if generated {
			pterm.Printf("Password: %s\n", password)
			pterm.Println("----------------------------------------")
			pterm.Println("Save the password securely. It will not be shown again.")
		}
		return nil
	},
}

func randomPassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func init() {
	createCmd.Flags().StringVar(&nameInput, "name", "", "Display name")
	createCmd.Flags().StringVar(&roleInput, "role", access.RoleUser, "Role to grant (admin or user)")
	createCmd.Flags().StringVar(&passwordInput, "password", "", "Password (generated when empty)")
}
