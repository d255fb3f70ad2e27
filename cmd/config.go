package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/roster/internal/config"
	"github.com/marcus/roster/internal/output"
	"github.com/marcus/roster/internal/suggest"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage roster configuration",
	Long:    `Settings resolve as ROSTER_* environment variables, then .roster/config.json, then defaults.`,
	GroupID: "system",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show every effective setting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Settings(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return output.JSON(settings)
		}
		for _, k := range config.Keys() {
			fmt.Printf("%s = %v\n", k, settings[k])
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := config.Get(getBaseDir(), args[0])
		if err != nil {
			reportConfigError(args[0], err)
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if err := config.Set(getBaseDir(), key, val); err != nil {
			reportConfigError(key, err)
			return err
		}
		output.Success("%s = %s", key, val)
		return nil
	},
}

func reportConfigError(key string, err error) {
	output.Error("%v", err)
	if !errors.Is(err, config.ErrUnknownKey) {
		return
	}
	if hints := suggest.Keys(key, config.Keys()); len(hints) > 0 {
		fmt.Println("Did you mean:", strings.Join(hints, ", "))
		return
	}
	fmt.Println("Valid keys:", strings.Join(config.Keys(), ", "))
}

func init() {
	configShowCmd.Flags().Bool("json", false, "output as JSON")
	configCmd.AddCommand(configShowCmd, configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
