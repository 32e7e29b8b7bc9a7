package auth

import (
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Infinity2209/user/cmd/panelctl/internal/client"
	"github.com/Infinity2209/user/cmd/panelctl/internal/config"
	"github.com/Infinity2209/user/cmd/panelctl/internal/render"
)

var (
	email    string
	password string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the panel",
	Long: `Signs in with email and password and saves the session for later commands.

The password is prompted for when --password is not given and
PANEL_PASSWORD is not set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		if email == "" {
			var err error
			email, err = pterm.DefaultInteractiveTextInput.Show("Email")
			if err != nil {
				return err
			}
		}
		if password == "" {
			password = os.Getenv("PANEL_PASSWORD")
		}
		if password == "" {
			var err error
			password, err = pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password")
			if err != nil {
				return err
			}
		}

		c, err := cfg.SDKClient(cmd.Context())
		if err != nil {
			return err
		}
		res, err := c.Login(cmd.Context(), email, password)
		if err != nil {
			return client.Explain(err)
		}

		if cfg.JSON() {
			return render.JSON(cmd.OutOrStdout(), res.User)
		}
		pterm.Success.Printf("Signed in as %s (%s), role %s\n", res.User.Name, res.User.Email, res.User.Role)
		if !res.ExpiresAt.IsZero() {
			pterm.Info.Printf("Session expires at %s\n", res.ExpiresAt.Local().Format(time.RFC1123))
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&email, "email", "", "Account email")
	loginCmd.Flags().StringVar(&password, "password", "", "Account password")
}
