// Command dealerctl runs maintenance tasks against the same data
// directory as the API server: backups, status refresh, audit review and
// first-run seeding.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sjperalta/dealer-ledger/internal/app"
	"github.com/sjperalta/dealer-ledger/internal/config"
	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/sjperalta/dealer-ledger/pkg/logger"
)

var version = "1.0.0"

// ledger is opened before any subcommand runs and closed after it
var ledger *app.App

var rootCmd = &cobra.Command{
	Use:   "dealerctl",
	Short: "Maintenance commands for the dealership ledger",
	Long: `dealerctl works on the database, audit log and backup directory
configured for the API server (DATA_DIR, DATABASE_PATH, BACKUP_DIR ...).

Stop the server before restoring a backup: both processes would otherwise
hold the database open.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		logger.SetupWithLevel(cfg.Environment, cfg.LogLevel)

		ledger, err = app.New(cfg, 1)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if ledger != nil {
			ledger.Close()
		}
	},
}

// actor is recorded in the audit log for every change made from here
var actor = models.SystemActor

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	if err := rootCmd.Execute(); err != nil {
		if ledger != nil {
			ledger.Close()
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
