package cli

import (
	"fmt"
	"os"

	"arcana-app/config"
	"arcana-app/database"
	"arcana-app/internal/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Version is set at build time with -ldflags.
var Version = "dev"

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "arcana",
		Short:         "ARCANA backend: plans, subscriptions and astrology profiles",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSeedCmd(),
		newPlansCmd(),
	)
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap loads the environment and builds the logger and store shared by
// the server-side commands.
func bootstrap() (*zap.Logger, *gorm.DB, error) {
	config.LoadEnv()

	log, err := logger.New(config.APP_ENV, config.LOG_LEVEL)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}

	db, err := database.Open(config.DB_DRIVER, config.DB_URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return log, db, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("schema migrated", zap.String("driver", config.DB_DRIVER))
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the reference regions, plans, prices and content",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if err := database.Seed(db); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			log.Info("reference data seeded",
				zap.Int("regions", len(database.ReferenceRegions)),
				zap.Int("plans", len(database.ReferencePlans)),
				zap.Int("prices", len(database.ReferencePrices)),
			)
			return nil
		},
	}
}
