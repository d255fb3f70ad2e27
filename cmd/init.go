package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/marcus/roster/internal/config"
	"github.com/marcus/roster/internal/db"
	"github.com/marcus/roster/internal/output"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Create the local record store",
	Long:    `Creates the .roster directory and its SQLite database.`,
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := getWorkDir()

		if _, err := os.Stat(db.Path(dir)); err == nil {
			output.Warning("%s/ already exists", db.DataDir)
			return nil
		}

		cfg, err := config.Load(dir)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		database, err := db.Initialize(dir, cfg.Store.Driver)
		if err != nil {
			output.Error("failed to initialize database: %v", err)
			return err
		}
		defer database.Close()

		fmt.Printf("INITIALIZED %s/\n", db.DataDir)
		fmt.Printf("Store: %s (driver %s)\n", filepath.Join(db.DataDir, filepath.Base(db.Path(dir))), cfg.Store.Driver)
		fmt.Printf("Sync endpoint: %s\n", cfg.Sync.URL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
