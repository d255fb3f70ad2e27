package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marcus/roster/internal/db"
	"github.com/marcus/roster/internal/output"
)

var showCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show one record",
	Long:    `Shows every stored field of a record. Purged records are gone and report not found.`,
	GroupID: "records",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			err = fmt.Errorf("invalid id %q", args[0])
			if jsonOutput {
				output.JSONErrorWithDetails(output.ErrCodeInvalidInput, err.Error(), nil)
			} else {
				output.Error("%v", err)
			}
			return err
		}

		a, err := openApp(getBaseDir(), false)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		p, err := a.store.GetPerson(cmd.Context(), id)
		if err != nil {
			if jsonOutput {
				code := output.ErrCodeDatabaseError
				if errors.Is(err, db.ErrNotFound) {
					code = output.ErrCodeNotFound
				}
				output.JSONErrorWithDetails(code, err.Error(), map[string]interface{}{"id": id})
			} else {
				output.Error("%v", err)
			}
			return err
		}

		if jsonOutput {
			return output.JSON(p)
		}
		fmt.Println(output.FormatPersonLong(p))
		return nil
	},
}

func init() {
	showCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(showCmd)
}
