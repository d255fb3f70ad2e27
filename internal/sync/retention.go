package sync

import (
	"context"
	"fmt"
	"log/slog"
)

// Retention removes synchronized records on request. It is never triggered by
// the engine, so synchronized records can be inspected before they go.
type Retention struct {
	store Purger

	Logger   *slog.Logger
	Recorder Recorder
}

// NewRetention creates a retention engine over the store.
func NewRetention(store Purger) *Retention {
	return &Retention{store: store}
}

// PurgeSynchronized deletes every synchronized record.
func (r *Retention) PurgeSynchronized(ctx context.Context) (PurgeOutcome, error) {
	n, err := r.store.DeleteSynchronized(ctx)
	if err != nil {
		return PurgeOutcome{}, fmt.Errorf("purge synchronized: %w", err)
	}

	out := PurgeOutcome{Kind: Purged, Count: n}
	if n == 0 {
		out = PurgeOutcome{Kind: NothingToPurge}
	}

	log := r.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Info("retention: purge", "result", out.Kind, "count", n)

	if r.Recorder != nil {
		r.Recorder.ObservePurge(out)
	}
	return out, nil
}
