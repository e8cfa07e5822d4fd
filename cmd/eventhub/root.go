package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"eventhub-api/internal/config"
	"eventhub-api/internal/logger"
	"eventhub-api/internal/storage/sqlite"
)

// app carries the state shared by every subcommand.
type app struct {
	cfg    config.Config
	log    *slog.Logger
	dbPath string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "eventhub",
		Short:         "EventHub event registration API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if a.dbPath != "" {
				cfg.DBPath = a.dbPath
			}
			a.cfg = cfg
			a.log = logger.Setup(cfg.Env)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (overrides DB_PATH)")

	root.AddCommand(newServeCmd(a), newMigrateCmd(a), newSeedAdminCmd(a))
	return root
}

func (a *app) openStore(ctx context.Context) (*sqlite.Store, error) {
	store, err := sqlite.Open(ctx, a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a.log.Info("database ready", "path", a.cfg.DBPath)
	return store, nil
}
