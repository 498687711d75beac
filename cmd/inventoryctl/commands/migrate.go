package commands

import (
	"go-warehouse-ws/pkg/database"

	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := connect()
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		success("Schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
