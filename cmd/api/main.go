package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/viewing-scheduler/internal/config"
	dbpkg "github.com/BruksfildServices01/viewing-scheduler/internal/db"
	"github.com/BruksfildServices01/viewing-scheduler/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "api",
		Short:         "Property viewing scheduler API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedOfficeCmd())
	root.AddCommand(newCreateAdminCmd())

	return root
}

// bootstrap loads config and opens the logger and database shared by
// every command.
func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	log, err := logging.New(cfg.IsProduction())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build logger: %w", err)
	}

	db, err := dbpkg.NewDB(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, log, db, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			if err := dbpkg.Migrate(db); err != nil {
				return err
			}
			log.Info("migrations applied")
			return nil
		},
	}
}
