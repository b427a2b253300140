package cmd

import (
	"log"

	"lexamen/config"
	"lexamen/models"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		if err := models.AutoMigrate(db); err != nil {
			return errors.Wrap(err, "failed to migrate database")
		}
		log.Printf("✅ Migrated %d tables", len(models.All()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
