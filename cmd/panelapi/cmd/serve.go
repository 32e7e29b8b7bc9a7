package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Infinity2209/user/cmd/panelapi/cmd/cmdutil"
	"github.com/Infinity2209/user/cmd/panelapi/internal/auth"
	"github.com/Infinity2209/user/cmd/panelapi/internal/resource"
	"github.com/Infinity2209/user/cmd/panelapi/internal/seed"
	"github.com/Infinity2209/user/cmd/panelapi/internal/server"
	"github.com/Infinity2209/user/pkg/access"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the panel API server",
	Long:  `Starts the HTTP server exposing the users and products collections and the auth endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.WithField("component", "serve")

		stores, err := cmdutil.NewStoreBundle(cfg)
		if err != nil {
			return err
		}
		defer stores.Close()

		if stores.Durable() {
			log.Info("Connected to database")
		} else {
			log.Info("Using in-memory document store; data is lost on exit")
		}

		if cfg.Seed {
			dataset, err := seed.Default()
			if err != nil {
				return fmt.Errorf("load seed dataset: %w", err)
			}
			if _, err := seed.Apply(cmd.Context(), dataset, stores.Store, stores.Accounts, logger.WithField("component", "seed")); err != nil {
				return fmt.Errorf("seed store: %w", err)
			}
		}

		revoked := auth.NewRevocationList(10 * time.Minute)
		tokens, err := auth.NewTokenIssuer(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL, revoked)
		if err != nil {
			return fmt.Errorf("configure token issuer: %w", err)
		}
		if cfg.Auth.EphemeralSecret {
			log.Warn("No auth.token_secret configured; using a random secret, issued tokens will not survive a restart")
		}

		gate, err := access.NewGate(access.DefaultPolicy())
		if err != nil {
			return fmt.Errorf("configure access gate: %w", err)
		}

		registry, err := resource.NewRegistry()
		if err != nil {
			return fmt.Errorf("load resource schemas: %w", err)
		}

		authEnabled := cfg.Auth.Enabled
		if !authEnabled {
			log.Warn("Authentication disabled; every resource route is open")
		}

		healthHandler := func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, `{"status":"ok","auth_enabled":%t,"durable":%t}`, authEnabled, stores.Durable())
		}

		handler, err := server.NewH2CHandler(server.RouterOptions{
			Store:         stores.Store,
			Registry:      registry,
			Accounts:      stores.Accounts,
			Tokens:        tokens,
			Gate:          gate,
			AuthEnabled:   authEnabled,
			Logger:        logger.WithField("component", "http"),
			HealthHandler: healthHandler,
		})
		if err != nil {
			return fmt.Errorf("build router: %w", err)
		}

		srv := &http.Server{
			Addr:         cfg.ServerAddr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			log.WithField("addr", cfg.ServerAddr).Info("Starting server")
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			log.WithField("signal", sig.String()).Info("Shutting down gracefully")

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				srv.Close()
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}

			log.Info("Server stopped")
			return nil
		}
	},
}

func init() {
	serveCmd.Flags().Bool("no-seed", false, "Do not load the default dataset into empty collections (env: PANEL_SEED=false)")
	serveCmd.Flags().Bool("no-auth", false, "Disable token authentication and the role gate (env: PANEL_AUTH_ENABLED=false)")
	serveCmd.PreRun = func(cmd *cobra.Command, args []string) {
		if noSeed, _ := cmd.Flags().GetBool("no-seed"); noSeed {
			cfg.Seed = false
		}
		if noAuth, _ := cmd.Flags().GetBool("no-auth"); noAuth {
			cfg.Auth.Enabled = false
		}
	}
	rootCmd.AddCommand(serveCmd)
}
