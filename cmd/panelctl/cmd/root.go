package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Infinity2209/user/cmd/panelctl/cmd/auth"
	"github.com/Infinity2209/user/cmd/panelctl/cmd/dashboard"
	"github.com/Infinity2209/user/cmd/panelctl/cmd/products"
	"github.com/Infinity2209/user/cmd/panelctl/cmd/users"
	"github.com/Infinity2209/user/cmd/panelctl/internal/client"
	"github.com/Infinity2209/user/cmd/panelctl/internal/config"
)

var provider *client.Provider

var rootCmd = &cobra.Command{
	Use:   "panelctl",
	Short: "Admin panel CLI",
	Long: `panelctl is the command-line interface for the admin panel API.
Use it to sign in and manage users and products.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		output := viper.GetString("output")
		if output != config.OutputTable && output != config.OutputJSON {
			return fmt.Errorf("unsupported output %q (use %s or %s)", output, config.OutputTable, config.OutputJSON)
		}

		log := logrus.New()
		log.SetOutput(os.Stderr)
		log.SetLevel(logrus.WarnLevel)
		if viper.GetBool("debug") {
			log.SetLevel(logrus.DebugLevel)
		}

		provider = client.NewProvider(client.Options{
			ServerURL:  viper.GetString("server_url"),
			SessionDir: viper.GetString("session_dir"),
			RedisURL:   viper.GetString("redis_url"),
			Logger:     log,
		})

		cmd.SetContext(config.InjectConfig(cmd.Context(), &config.GlobalConfig{
			ServerURL:      viper.GetString("server_url"),
			Output:         output,
			ClientProvider: provider,
		}))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if provider == nil {
			return nil
		}
		return provider.Close()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	viper.SetEnvPrefix("PANEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	flags := rootCmd.PersistentFlags()
	flags.String("server", "http://localhost:8080", "Panel API server URL (env: PANEL_SERVER_URL)")
	flags.String("session-dir", "", "Directory holding the saved session (default ~/.panel, env: PANEL_SESSION_DIR)")
	flags.String("redis-url", "", "Keep the session in Redis instead of the session directory (env: PANEL_REDIS_URL)")
	flags.StringP("output", "o", config.OutputTable, "Output format: table or json")
	flags.Bool("debug", false, "Log HTTP requests and client cache activity to stderr")

	_ = viper.BindPFlag("server_url", flags.Lookup("server"))
	_ = viper.BindPFlag("session_dir", flags.Lookup("session-dir"))
	_ = viper.BindPFlag("redis_url", flags.Lookup("redis-url"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))

	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(users.UsersCmd)
	rootCmd.AddCommand(products.ProductsCmd)
	rootCmd.AddCommand(dashboard.DashboardCmd)
}
