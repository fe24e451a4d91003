package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mtobin/pennywise/internal/api"
	"github.com/mtobin/pennywise/internal/auth"
	"github.com/mtobin/pennywise/internal/common"
	"github.com/mtobin/pennywise/internal/ledger"
	"github.com/mtobin/pennywise/internal/report"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Serve the finance tracker API: registration, login, transaction
posting with debt reconciliation, tag management, and dashboards.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	secret := viper.GetString("auth.token_secret")
	if secret == "" {
		return fmt.Errorf("%w: auth.token_secret (PENNYWISE_AUTH_TOKEN_SECRET)", common.ErrMissingConfig)
	}

	tokenTTL := viper.GetDuration("auth.token_ttl")
	if tokenTTL == 0 {
		tokenTTL = 24 * time.Hour
	}

	authService, err := auth.New(store, []byte(secret), tokenTTL)
	if err != nil {
		return err
	}

	server := api.NewServer(ledger.New(store), report.New(store), authService)

	addr := viper.GetString("server.addr")
	slog.Info("Starting API server", "addr", addr)

	return server.Run(addr)
}
