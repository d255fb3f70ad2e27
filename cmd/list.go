package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/roster/internal/models"
	"github.com/marcus/roster/internal/output"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored records",
	GroupID: "records",
	RunE: func(cmd *cobra.Command, args []string) error {
		pendingOnly, _ := cmd.Flags().GetBool("pending")
		syncedOnly, _ := cmd.Flags().GetBool("synced")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		long, _ := cmd.Flags().GetBool("long")

		a, err := openApp(getBaseDir(), false)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		var people []models.Person
		switch {
		case pendingOnly:
			people, err = a.store.ListPending(ctx)
		case syncedOnly:
			people, err = a.store.ListSynchronized(ctx)
		default:
			people, err = a.store.ListPeople(ctx)
		}
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if jsonOutput {
			if people == nil {
				people = []models.Person{}
			}
			return output.JSON(people)
		}

		if len(people) == 0 {
			fmt.Println("No records")
			return nil
		}

		switch {
		case long:
			for i := range people {
				if i > 0 {
					fmt.Println()
				}
				fmt.Println(output.FormatPersonLong(&people[i]))
			}
		case output.IsTerminal():
			rendered, err := output.RenderMarkdown(output.PeopleTable(people))
			if err != nil {
				return err
			}
			fmt.Println(rendered)
		default:
			for i := range people {
				fmt.Println(output.FormatPersonShort(&people[i]))
			}
		}
		return nil
	},
}

func init() {
	listCmd.Flags().Bool("pending", false, "only records waiting to be synchronized")
	listCmd.Flags().Bool("synced", false, "only synchronized records that have not been purged")
	listCmd.Flags().BoolP("long", "l", false, "show every field")
	listCmd.Flags().Bool("json", false, "output as JSON")
	listCmd.MarkFlagsMutuallyExclusive("pending", "synced")
	rootCmd.AddCommand(listCmd)
}
