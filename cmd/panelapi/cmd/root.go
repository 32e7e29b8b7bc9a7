package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Infinity2209/user/cmd/panelapi/cmd/accounts"
	"github.com/Infinity2209/user/cmd/panelapi/internal/config"
)

var (
	cfg        *config.Config
	logger     *logrus.Logger
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "panelapi",
	Short: "Admin panel API server",
	Long: `Admin panel API server exposes users and products as JSON REST collections
with token login and role-based access control.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			viper.SetConfigFile(configFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file: %w", err)
			}
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		logger = newLogger(cfg.Debug)
		return nil
	},
}

func newLogger(debug bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if debug {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}

func init() {
	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Path to a YAML config file")
	flags.String("db-url", "", "Database connection URL, or 'memory' (env: PANEL_DATABASE_URL)")
	flags.String("server-addr", "", "Server bind address (env: PANEL_SERVER_ADDR)")
	flags.Bool("debug", false, "Enable debug logging (env: PANEL_DEBUG)")

	_ = viper.BindPFlag("database_url", flags.Lookup("db-url"))
	_ = viper.BindPFlag("server_addr", flags.Lookup("server-addr"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))

	// Add subcommands
	rootCmd.AddCommand(accounts.AccountsCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
