package cmd

import (
	"fmt"

	rostersync "github.com/marcus/roster/internal/sync"
)

// User-facing messages.
const (
	msgSaved          = "Saved information."
	msgNothingToSync  = "At the moment you have no data to synchronize"
	msgOffline        = "Offline."
	msgSynchronizing  = "Synchronizing information..."
	msgNothingToPurge = "There are no records to delete."
	msgPurged         = "All records that were synchronized were deleted."
)

func pendingLine(n int64) string {
	return fmt.Sprintf("Pending syncs: %d", n)
}

// outcomeMessage is the one-line summary shown after a sync.
func outcomeMessage(o rostersync.Outcome) string {
	switch o.Kind {
	case rostersync.OutcomeOK:
		if o.Count == 1 {
			return "Synchronized 1 record."
		}
		return fmt.Sprintf("Synchronized %d records.", o.Count)
	case rostersync.OutcomeSkipped:
		if o.Reason == rostersync.Offline {
			return msgOffline
		}
		return msgNothingToSync
	case rostersync.OutcomeRemoteRejected:
		return fmt.Sprintf("server rejected the batch: %v", o.Err)
	case rostersync.OutcomePartialFailure:
		return fmt.Sprintf("server accepted %d records but they could not be marked as synchronized; they will be sent again: %v", o.Count, o.Err)
	default:
		return o.String()
	}
}
