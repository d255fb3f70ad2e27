package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/roster/internal/output"
	rostersync "github.com/marcus/roster/internal/sync"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete records the server has already accepted",
	Long: `Deletes every synchronized record from the local store. Pending records are
never touched. Use 'roster list --synced' to review what will be removed.`,
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		a, err := openApp(getBaseDir(), false)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		out, err := a.retention.PurgeSynchronized(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if jsonOutput {
			return output.JSON(out)
		}

		if out.Kind == rostersync.NothingToPurge {
			output.Info(msgNothingToPurge)
			return nil
		}
		output.Success(msgPurged)
		fmt.Printf("Deleted: %d\n", out.Count)
		return nil
	},
}

func init() {
	purgeCmd.Flags().Bool("json", false, "output the result as JSON")
	rootCmd.AddCommand(purgeCmd)
}
