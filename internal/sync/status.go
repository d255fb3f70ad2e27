package sync

import (
	"context"
	"fmt"
)

// Reporter projects the store into pending/synchronized counts.
type Reporter struct {
	store Counter
}

// NewReporter creates a status reporter over the store.
func NewReporter(store Counter) *Reporter {
	return &Reporter{store: store}
}

// Snapshot reads both counts from the store in one read. Nothing is cached.
func (r *Reporter) Snapshot(ctx context.Context) (Snapshot, error) {
	pending, synced, err := r.store.Counts(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("status: %w", err)
	}
	return Snapshot{Pending: pending, Synchronized: synced}, nil
}
