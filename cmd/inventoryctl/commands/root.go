package commands

import (
	"fmt"
	"os"

	"go-warehouse-ws/internal/config"
	"go-warehouse-ws/pkg/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	// Global flags
	dsnOverride string
	verbose     bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "inventoryctl",
	Short: "Operator tool for the warehouse stock service",
	Long: `inventoryctl runs maintenance tasks against the warehouse database.

Database settings come from .env / environment (DB_HOST, DB_NAME, DATABASE_URL, ...)
unless --db is given.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsnOverride, "db", "", "Database connection URL (overrides environment)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log SQL statements")
}

// connect loads config and opens the database.
func connect() (*config.Config, *gorm.DB, error) {
	cfg := config.Load()
	dsn := cfg.Database.GetDSN()
	if dsnOverride != "" {
		dsn = dsnOverride
	}
	level := cfg.Database.LogLevel
	if verbose {
		level = "info"
	}
	db, err := database.ConnectDB(dsn, level)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return cfg, db, nil
}
