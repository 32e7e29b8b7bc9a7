package users

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Infinity2209/user/cmd/panelctl/internal/client"
	"github.com/Infinity2209/user/cmd/panelctl/internal/render"
	"github.com/Infinity2209/user/pkg/sdk"
)

type userFields struct {
	name, email, phone, role string
}

var createFields, updateFields userFields

func (f *userFields) register(cmd *cobra.Command, defaultRole string) {
	cmd.Flags().StringVar(&f.name, "name", "", "Full name")
	cmd.Flags().StringVar(&f.email, "email", "", "Email address")
	cmd.Flags().StringVar(&f.phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&f.role, "role", defaultRole, "Role: admin or user")
}

// patch sets only the fields whose flags were given.
func (f *userFields) patch(cmd *cobra.Command) sdk.UserPatch {
	var p sdk.UserPatch
	if cmd.Flags().Changed("name") {
		p.Name = &f.name
	}
	if cmd.Flags().Changed("email") {
		p.Email = &f.email
	}
	if cmd.Flags().Changed("phone") {
		p.Phone = &f.phone
	}
	if cmd.Flags().Changed("role") {
		p.Role = &f.role
	}
	return p
}

func printUser(cmd *cobra.Command, json bool, verb string, u sdk.User) error {
	if json {
		return render.JSON(cmd.OutOrStdout(), u)
	}
	pterm.Success.Printf("User %s %s\n", u.ID, verb)
	return render.Users(cmd.OutOrStdout(), []sdk.User{u})
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := createFields
		if f.name == "" || f.email == "" {
			return fmt.Errorf("--name and --email are required")
		}
		cfg, users, err := resource(cmd.Context())
		if err != nil {
			return err
		}
		u, err := users.Create(cmd.Context(), sdk.User{Name: f.name, Email: f.email, Phone: f.phone, Role: f.role})
		if err != nil {
			return client.Explain(err)
		}
		return printUser(cmd, cfg.JSON(), "created", u)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Change fields of a user; unspecified fields keep their value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch := updateFields.patch(cmd)
		if patch == (sdk.UserPatch{}) {
			return fmt.Errorf("nothing to update: pass at least one of --name, --email, --phone, --role")
		}
		cfg, users, err := resource(cmd.Context())
		if err != nil {
			return err
		}
		u, err := users.Update(cmd.Context(), args[0], patch)
		if err != nil {
			return client.Explain(err)
		}
		return printUser(cmd, cfg.JSON(), "updated", u)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, users, err := resource(cmd.Context())
		if err != nil {
			return err
		}
		u, err := users.Delete(cmd.Context(), args[0])
		if err != nil {
			return client.Explain(err)
		}
		return printUser(cmd, cfg.JSON(), "deleted", u)
	},
}

func init() {
	createFields.register(createCmd, "user")
	updateFields.register(updateCmd, "")
}
