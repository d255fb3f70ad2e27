package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/roster/internal/output"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show pending and synchronized counts",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		a, err := openApp(getBaseDir(), false)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		snap, err := a.reporter.Snapshot(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if jsonOutput {
			return output.JSON(snap)
		}

		fmt.Println(pendingLine(snap.Pending))
		fmt.Printf("Synchronized (not purged): %d\n", snap.Synchronized)
		fmt.Printf("Endpoint: %s\n", a.cfg.Sync.URL)
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(statusCmd)
}
