package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/roster/internal/output"
	rostersync "github.com/marcus/roster/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push pending records to the collection endpoint",
	Long: `Sends every pending record in one request. Records are marked synchronized
only when the server accepts the whole batch. Nothing is retried; run sync
again (or use 'roster agent') to try later.`,
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		a, err := openApp(getBaseDir(), false)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		var out rostersync.Outcome
		run := func(ctx context.Context) error {
			var err error
			out, err = a.engine.Synchronize(ctx)
			return err
		}

		ctx := cmd.Context()
		if output.IsTerminal() && !jsonOutput {
			err = withSpinner(ctx, a.logger, msgSynchronizing, run)
		} else {
			err = run(ctx)
		}
		if err != nil {
			if jsonOutput {
				output.JSONErrorWithDetails(output.ErrCodeDatabaseError, err.Error(), nil)
			} else {
				output.Error("%v", err)
			}
			return err
		}

		if jsonOutput {
			if code := outcomeErrorCode(out); code != "" {
				output.JSONErrorWithDetails(code, outcomeMessage(out), map[string]interface{}{"outcome": out})
				return outcomeError(out)
			}
			return output.JSON(out)
		}

		switch out.Kind {
		case rostersync.OutcomeOK:
			output.Success("%s", outcomeMessage(out))
		case rostersync.OutcomeSkipped:
			if out.Reason == rostersync.Offline {
				output.Warning("%s", outcomeMessage(out))
			} else {
				output.Info("%s", outcomeMessage(out))
			}
		default:
			output.Error("%s", outcomeMessage(out))
		}

		if snap, err := a.reporter.Snapshot(ctx); err == nil {
			fmt.Println(pendingLine(snap.Pending))
		}
		return outcomeError(out)
	},
}

// outcomeErrorCode is the JSON error code for a failed outcome, or "".
func outcomeErrorCode(o rostersync.Outcome) string {
	switch o.Kind {
	case rostersync.OutcomeRemoteRejected:
		return output.ErrCodeRemoteRejected
	case rostersync.OutcomePartialFailure:
		return output.ErrCodePartialFailure
	default:
		return ""
	}
}

// outcomeError turns failed outcomes into a non-zero exit.
func outcomeError(o rostersync.Outcome) error {
	if !o.Failed() {
		return nil
	}
	return errors.New(o.String())
}

func init() {
	syncCmd.Flags().Bool("json", false, "output the outcome as JSON")
	rootCmd.AddCommand(syncCmd)
}
